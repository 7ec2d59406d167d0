package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeSubmission godoc
// @Summary Grade one submission
// @Description Runs the auto-grading rubric over a submitted submission
// @Tags grading
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} services.SubmissionGradingResult
// @Failure 400 {object} ErrorResponse
// @Router /submissions/{id}/grade [post]
func (h *GradingHandler) GradeSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.gradingService.GradeSubmission(c.Request.Context(), id, services.AutoGrader)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "submission graded", "submission_id", id, "percentage", result.Percentage)
	c.JSON(http.StatusOK, result)
}

// GradeHomework godoc
// @Summary Grade all pending submissions of a homework
// @Tags grading
// @Produce json
// @Param id path int true "Homework ID"
// @Success 200 {object} services.BatchGradingResult
// @Router /homework/{id}/grade [post]
func (h *GradingHandler) GradeHomework(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.gradingService.GradeHomework(c.Request.Context(), id, services.AutoGrader)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "homework graded", "homework_id", id, "graded", result.Graded, "failed", result.Failed)
	c.JSON(http.StatusOK, result)
}

// OverrideGrade godoc
// @Summary Override the marks for one answer
// @Description Replaces one answer's marks and recomputes totals and letter grade
// @Tags grading
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param override body services.OverrideGradeRequest true "Override payload"
// @Success 200 {object} models.Submission
// @Failure 422 {object} ErrorResponse
// @Router /submissions/{id}/override [post]
func (h *GradingHandler) OverrideGrade(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.OverrideGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	submission, err := h.gradingService.OverrideGrade(c.Request.Context(), id, req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "grade overridden", "submission_id", id, "question_index", req.QuestionIndex)
	c.JSON(http.StatusOK, submission)
}
