package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/services"
	"github.com/HMPS-2025/homework-service/internal/utils"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	h.logger.Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "method", c.Request.Method, "path", c.FullPath())
	h.logger.Error(msg, args...)
}

// parseIDParam parses a path parameter as a uint ID. On failure it has
// already written the 400 response; callers just return.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid " + name})
		return 0
	}
	return uint(value)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}

// parsePagination maps page/size query params to limit/offset.
func (h *BaseHandler) parsePagination(c *gin.Context) (page, size, limit, offset int) {
	page = h.parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size = h.parseIntQuery(c, "size", 20)
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size, size, (page - 1) * size
}

func getUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

func getUserRole(c *gin.Context) models.UserRole {
	if role, exists := c.Get("user_role"); exists {
		if r, ok := role.(models.UserRole); ok {
			return r
		}
	}
	return ""
}

// handleServiceError maps service-layer errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs services.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "validation failed",
			Details: validationErrs,
		})
		return
	}

	var businessErr *services.BusinessRuleError
	if errors.As(err, &businessErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": businessErr.Message,
			"rule":    businessErr.Rule,
			"context": businessErr.Context,
		})
		return
	}

	var permissionErr *services.PermissionError
	if errors.As(err, &permissionErr) {
		c.JSON(http.StatusForbidden, gin.H{
			"message":  permissionErr.Reason,
			"resource": permissionErr.Resource,
			"action":   permissionErr.Action,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrLessonNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrHomeworkNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrAlreadySubmitted),
		errors.Is(err, services.ErrAlreadyGraded),
		errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrDueDatePassed):
		c.JSON(http.StatusGone, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrHomeworkNotActive),
		errors.Is(err, services.ErrNotSubmitted),
		errors.Is(err, services.ErrNotGraded),
		errors.Is(err, services.ErrBadRequest),
		errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})

	default:
		h.LogError(c, err, "unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
	}
}
