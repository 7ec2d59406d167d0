package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type PerformanceHandler struct {
	BaseHandler
	performanceService services.PerformanceService
}

func NewPerformanceHandler(performanceService services.PerformanceService, logger utils.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		BaseHandler:        NewBaseHandler(logger),
		performanceService: performanceService,
	}
}

// yearMonth reads year/month query params, defaulting to the current
// month.
func (h *PerformanceHandler) yearMonth(c *gin.Context) (int, int) {
	now := time.Now()
	year := h.parseIntQuery(c, "year", now.Year())
	month := h.parseIntQuery(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, month
}

// GetStudentPerformance godoc
// @Summary Get a student's monthly performance per subject
// @Tags performance
// @Produce json
// @Param student_id path string true "Student ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {array} models.PerformanceRecord
// @Failure 403 {object} ErrorResponse
// @Router /performance/students/{student_id} [get]
func (h *PerformanceHandler) GetStudentPerformance(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid student_id"})
		return
	}

	// students can only read their own record
	if getUserRole(c) == models.RoleStudent && studentID != getUserID(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "insufficient permissions"})
		return
	}

	year, month := h.yearMonth(c)
	records, err := h.performanceService.GetStudentPerformance(c.Request.Context(), studentID, year, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// ComputeStudentPerformance godoc
// @Summary Recompute a student's monthly performance
// @Tags performance
// @Produce json
// @Param student_id path string true "Student ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {array} models.PerformanceRecord
// @Router /performance/students/{student_id}/compute [post]
func (h *PerformanceHandler) ComputeStudentPerformance(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid student_id"})
		return
	}

	year, month := h.yearMonth(c)
	records, err := h.performanceService.ComputeAllForStudent(c.Request.Context(), studentID, year, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "performance computed", "student_id", studentID, "records", len(records))
	c.JSON(http.StatusOK, records)
}

// GetClassOverview godoc
// @Summary Get the aggregated monthly overview of a class
// @Tags performance
// @Produce json
// @Param grade query int true "Grade"
// @Param section query string false "Section"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} services.ClassPerformanceOverview
// @Router /performance/class [get]
func (h *PerformanceHandler) GetClassOverview(c *gin.Context) {
	grade := h.parseIntQuery(c, "grade", 0)
	if grade < 6 || grade > 11 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "grade must be between 6 and 11"})
		return
	}

	year, month := h.yearMonth(c)
	overview, err := h.performanceService.GetClassOverview(c.Request.Context(), grade, c.Query("section"), year, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
