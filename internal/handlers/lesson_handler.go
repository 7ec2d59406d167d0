package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type LessonHandler struct {
	BaseHandler
	lessonService services.LessonService
}

func NewLessonHandler(lessonService services.LessonService, logger utils.Logger) *LessonHandler {
	return &LessonHandler{
		BaseHandler:   NewBaseHandler(logger),
		lessonService: lessonService,
	}
}

// CreateLesson godoc
// @Summary Create a lesson
// @Description Creates a lesson and extracts its keywords and topics
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body services.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} models.Lesson
// @Failure 400 {object} ErrorResponse
// @Router /lessons [post]
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req services.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	lesson, err := h.lessonService.Create(c.Request.Context(), req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "lesson created", "lesson_id", lesson.ID)
	c.JSON(http.StatusCreated, lesson)
}

// GetLesson godoc
// @Summary Get a lesson by ID
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.Lesson
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [get]
func (h *LessonHandler) GetLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	lesson, err := h.lessonService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// UpdateLesson godoc
// @Summary Update a lesson
// @Description Updates lesson fields; changed content is re-analyzed
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param lesson body services.UpdateLessonRequest true "Fields to update"
// @Success 200 {object} models.Lesson
// @Failure 403 {object} ErrorResponse
// @Router /lessons/{id} [put]
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	lesson, err := h.lessonService.Update(c.Request.Context(), id, req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags lessons
// @Param id path int true "Lesson ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [delete]
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.lessonService.Delete(c.Request.Context(), id, getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "lesson deleted"})
}

// ListLessons godoc
// @Summary List lessons
// @Tags lessons
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param grade query int false "Filter by grade"
// @Param search query string false "Search title and unit"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} ListResponse
// @Router /lessons [get]
func (h *LessonHandler) ListLessons(c *gin.Context) {
	page, size, limit, offset := h.parsePagination(c)

	filters := repositories.LessonFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if subject := c.Query("subject"); subject != "" {
		filters.Subject = &subject
	}
	if grade := h.parseIntQuery(c, "grade", 0); grade > 0 {
		filters.Grade = &grade
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	lessons, total, err := h.lessonService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: lessons, Total: total, Page: page, Size: size})
}
