package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// SaveDraft godoc
// @Summary Save draft answers for homework
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path int true "Homework ID"
// @Param answers body services.SaveSubmissionRequest true "Answers keyed by question index"
// @Success 200 {object} models.Submission
// @Failure 409 {object} ErrorResponse
// @Router /homework/{id}/draft [put]
func (h *SubmissionHandler) SaveDraft(c *gin.Context) {
	homeworkID := h.parseIDParam(c, "id")
	if homeworkID == 0 {
		return
	}

	var req services.SaveSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	submission, err := h.submissionService.SaveDraft(c.Request.Context(), homeworkID, getUserID(c), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// Submit godoc
// @Summary Submit homework answers
// @Description Finalizes the submission; late submissions are rejected unless the homework allows them
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path int true "Homework ID"
// @Param answers body services.SaveSubmissionRequest true "Answers keyed by question index"
// @Success 201 {object} models.Submission
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /homework/{id}/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	homeworkID := h.parseIDParam(c, "id")
	if homeworkID == 0 {
		return
	}

	var req services.SaveSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), homeworkID, getUserID(c), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "submission received", "submission_id", submission.ID, "is_late", submission.IsLate)
	c.JSON(http.StatusCreated, submission)
}

// GetSubmission godoc
// @Summary Get a submission
// @Description Students see their own, teachers their homework's, parents their child's
// @Tags submissions
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 403 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), id, getUserID(c), getUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// ListHomeworkSubmissions godoc
// @Summary List all submissions for a homework
// @Tags submissions
// @Produce json
// @Param id path int true "Homework ID"
// @Success 200 {array} models.Submission
// @Router /homework/{id}/submissions [get]
func (h *SubmissionHandler) ListHomeworkSubmissions(c *gin.Context) {
	homeworkID := h.parseIDParam(c, "id")
	if homeworkID == 0 {
		return
	}

	submissions, err := h.submissionService.ListByHomework(c.Request.Context(), homeworkID, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

// ListMySubmissions godoc
// @Summary List the caller's own submissions
// @Tags submissions
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} ListResponse
// @Router /submissions/mine [get]
func (h *SubmissionHandler) ListMySubmissions(c *gin.Context) {
	page, size, limit, offset := h.parsePagination(c)

	filters := repositories.SubmissionFilters{
		Limit:  limit,
		Offset: offset,
	}
	if status := c.Query("status"); status != "" {
		subStatus := models.SubmissionStatus(status)
		filters.Status = &subStatus
	}

	submissions, total, err := h.submissionService.ListByStudent(c.Request.Context(), getUserID(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: submissions, Total: total, Page: page, Size: size})
}
