package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type HomeworkHandler struct {
	BaseHandler
	homeworkService services.HomeworkService
}

func NewHomeworkHandler(homeworkService services.HomeworkService, logger utils.Logger) *HomeworkHandler {
	return &HomeworkHandler{
		BaseHandler:     NewBaseHandler(logger),
		homeworkService: homeworkService,
	}
}

// CreateHomework godoc
// @Summary Create homework
// @Description Creates homework from a lesson; questions are generated when none are supplied
// @Tags homework
// @Accept json
// @Produce json
// @Param homework body services.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} models.Homework
// @Failure 400 {object} ErrorResponse
// @Router /homework [post]
func (h *HomeworkHandler) CreateHomework(c *gin.Context) {
	var req services.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	homework, err := h.homeworkService.Create(c.Request.Context(), req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "homework created", "homework_id", homework.ID)
	c.JSON(http.StatusCreated, homework)
}

// GetHomework godoc
// @Summary Get homework with its questions
// @Description Students see only published homework, with answer keys stripped
// @Tags homework
// @Produce json
// @Param id path int true "Homework ID"
// @Success 200 {object} models.Homework
// @Failure 404 {object} ErrorResponse
// @Router /homework/{id} [get]
func (h *HomeworkHandler) GetHomework(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	homework, err := h.homeworkService.GetByID(c.Request.Context(), id, getUserID(c), getUserRole(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, homework)
}

// UpdateHomework godoc
// @Summary Update homework
// @Tags homework
// @Accept json
// @Produce json
// @Param id path int true "Homework ID"
// @Param homework body services.UpdateHomeworkRequest true "Fields to update"
// @Success 200 {object} models.Homework
// @Router /homework/{id} [put]
func (h *HomeworkHandler) UpdateHomework(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	homework, err := h.homeworkService.Update(c.Request.Context(), id, req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, homework)
}

// DeleteHomework godoc
// @Summary Delete homework
// @Tags homework
// @Param id path int true "Homework ID"
// @Success 200 {object} SuccessResponse
// @Router /homework/{id} [delete]
func (h *HomeworkHandler) DeleteHomework(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.homeworkService.Delete(c.Request.Context(), id, getUserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "homework deleted"})
}

// ListHomework godoc
// @Summary List homework
// @Tags homework
// @Produce json
// @Param status query string false "Filter by status"
// @Param subject query string false "Filter by subject"
// @Param grade query int false "Filter by grade"
// @Success 200 {object} ListResponse
// @Router /homework [get]
func (h *HomeworkHandler) ListHomework(c *gin.Context) {
	page, size, limit, offset := h.parsePagination(c)

	filters := repositories.HomeworkFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		hwStatus := models.HomeworkStatus(status)
		filters.Status = &hwStatus
	}
	if subject := c.Query("subject"); subject != "" {
		filters.Subject = &subject
	}
	if grade := h.parseIntQuery(c, "grade", 0); grade > 0 {
		filters.Grade = &grade
	}

	// students only see published work for their grade
	if user, ok := GetUserFromContext(c); ok && user.Role == models.RoleStudent {
		active := models.HomeworkActive
		filters.Status = &active
		filters.Grade = &user.Grade
	}

	homework, total, err := h.homeworkService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: homework, Total: total, Page: page, Size: size})
}

// PublishHomework godoc
// @Summary Publish homework to students
// @Tags homework
// @Produce json
// @Param id path int true "Homework ID"
// @Success 200 {object} models.Homework
// @Failure 422 {object} ErrorResponse
// @Router /homework/{id}/publish [post]
func (h *HomeworkHandler) PublishHomework(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	homework, err := h.homeworkService.Publish(c.Request.Context(), id, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "homework published", "homework_id", id)
	c.JSON(http.StatusOK, homework)
}

// CloseHomework godoc
// @Summary Close homework for submissions
// @Tags homework
// @Produce json
// @Param id path int true "Homework ID"
// @Success 200 {object} models.Homework
// @Router /homework/{id}/close [post]
func (h *HomeworkHandler) CloseHomework(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	homework, err := h.homeworkService.Close(c.Request.Context(), id, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, homework)
}

// GetHomeworkStats godoc
// @Summary Get submission statistics for homework
// @Tags homework
// @Produce json
// @Param id path int true "Homework ID"
// @Success 200 {object} repositories.HomeworkStats
// @Router /homework/{id}/stats [get]
func (h *HomeworkHandler) GetHomeworkStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.homeworkService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ScheduleWeek godoc
// @Summary Schedule the weekly homework set for a grade
// @Description Creates two homework per subject, due mid-week and end of week
// @Tags homework
// @Accept json
// @Produce json
// @Param request body services.ScheduleWeekRequest true "Week to schedule"
// @Success 201 {array} models.Homework
// @Router /homework/schedule-week [post]
func (h *HomeworkHandler) ScheduleWeek(c *gin.Context) {
	var req services.ScheduleWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	created, err := h.homeworkService.ScheduleWeek(c.Request.Context(), req, getUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "weekly homework scheduled", "grade", req.Grade, "created", len(created))
	c.JSON(http.StatusCreated, created)
}
