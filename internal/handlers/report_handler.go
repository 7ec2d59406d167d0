package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/export"
	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/repositories"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
	userRepo      repositories.UserRepository
}

func NewReportHandler(reportService services.ReportService, userRepo repositories.UserRepository, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
		userRepo:      userRepo,
	}
}

func (h *ReportHandler) yearMonth(c *gin.Context) (int, int) {
	prev := time.Now().AddDate(0, -1, 0)
	year := h.parseIntQuery(c, "year", prev.Year())
	month := h.parseIntQuery(c, "month", int(prev.Month()))
	if month < 1 || month > 12 {
		month = int(prev.Month())
	}
	return year, month
}

// canAccessReport enforces who may read a student's report: the student
// themselves, their parent, or staff.
func (h *ReportHandler) canAccessReport(c *gin.Context, studentID string) bool {
	role := getUserRole(c)
	switch role {
	case models.RoleAdmin, models.RoleTeacher:
		return true
	case models.RoleStudent:
		return studentID == getUserID(c)
	case models.RoleParent:
		student, err := h.userRepo.GetByID(c.Request.Context(), studentID)
		if err != nil {
			return false
		}
		parent, err := h.userRepo.GetByID(c.Request.Context(), getUserID(c))
		if err != nil {
			return false
		}
		return student.ParentEmail != "" && student.ParentEmail == parent.Email
	}
	return false
}

// GenerateReports godoc
// @Summary Generate monthly reports for a class
// @Tags reports
// @Produce json
// @Param grade query int true "Grade"
// @Param section query string false "Section"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 201 {array} models.MonthlyReport
// @Router /reports/generate [post]
func (h *ReportHandler) GenerateReports(c *gin.Context) {
	grade := h.parseIntQuery(c, "grade", 0)
	if grade < 6 || grade > 11 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "grade must be between 6 and 11"})
		return
	}

	year, month := h.yearMonth(c)
	reports, err := h.reportService.GenerateForClass(c.Request.Context(), grade, c.Query("section"), year, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "reports generated", "grade", grade, "count", len(reports))
	c.JSON(http.StatusCreated, reports)
}

// GetReport godoc
// @Summary Get a student's monthly report
// @Tags reports
// @Produce json
// @Param student_id path string true "Student ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} models.MonthlyReport
// @Failure 404 {object} ErrorResponse
// @Router /reports/students/{student_id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid student_id"})
		return
	}
	if !h.canAccessReport(c, studentID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "insufficient permissions"})
		return
	}

	year, month := h.yearMonth(c)
	report, err := h.reportService.GetReport(c.Request.Context(), studentID, year, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DownloadReport godoc
// @Summary Download a report as an Excel workbook
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param student_id path string true "Student ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {file} binary
// @Router /reports/students/{student_id}/download [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid student_id"})
		return
	}
	if !h.canAccessReport(c, studentID) {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "insufficient permissions"})
		return
	}

	year, month := h.yearMonth(c)
	data, filename, err := h.reportService.ExportExcel(c.Request.Context(), studentID, year, month)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, export.ReportContentType, data)
}

// EmailReport godoc
// @Summary Email a report to the student's parent
// @Tags reports
// @Produce json
// @Param student_id path string true "Student ID"
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse
// @Router /reports/students/{student_id}/email [post]
func (h *ReportHandler) EmailReport(c *gin.Context) {
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid student_id"})
		return
	}

	year, month := h.yearMonth(c)
	if err := h.reportService.EmailReport(c.Request.Context(), studentID, year, month); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "report emailed", "student_id", studentID)
	c.JSON(http.StatusOK, SuccessResponse{Message: "report emailed"})
}
