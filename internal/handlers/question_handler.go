package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
	}
}

// CreateQuestion godoc
// @Summary Create a question manually
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question payload"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "question created", "question_id", question.ID)
	c.JSON(http.StatusCreated, question)
}

// GenerateQuestions godoc
// @Summary Generate questions from a lesson
// @Description Generates the requested mix of questions from lesson material
// @Tags questions
// @Accept json
// @Produce json
// @Param request body services.GenerateQuestionsRequest true "Generation request"
// @Success 201 {array} models.Question
// @Failure 422 {object} ErrorResponse
// @Router /questions/generate [post]
func (h *QuestionHandler) GenerateQuestions(c *gin.Context) {
	var req services.GenerateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	questions, err := h.questionService.Generate(c.Request.Context(), req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "questions generated", "lesson_id", req.LessonID, "count", len(questions))
	c.JSON(http.StatusCreated, questions)
}

// GetQuestion godoc
// @Summary Get a question by ID
// @Tags questions
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags questions
// @Param id path int true "Question ID"
// @Success 200 {object} SuccessResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "question deleted"})
}

// ListQuestions godoc
// @Summary List questions
// @Tags questions
// @Produce json
// @Param type query string false "Filter by question type"
// @Param lesson_id query int false "Filter by lesson"
// @Success 200 {object} ListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, size, limit, offset := h.parsePagination(c)

	filters := repositories.QuestionFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if qt := c.Query("type"); qt != "" {
		questionType := models.QuestionType(qt)
		filters.Type = &questionType
	}
	if lessonID := h.parseIntQuery(c, "lesson_id", 0); lessonID > 0 {
		id := uint(lessonID)
		filters.LessonID = &id
	}
	if topic := c.Query("topic"); topic != "" {
		filters.Topic = &topic
	}

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: questions, Total: total, Page: page, Size: size})
}
