package services

import (
	"errors"
	"fmt"
	"strings"
)

// ===== SENTINEL ERRORS =====

var (
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrHomeworkNotFound   = errors.New("homework not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrHomeworkNotActive    = errors.New("homework is not active")
	ErrHomeworkHasQuestions = errors.New("homework already has questions")
	ErrDueDatePassed        = errors.New("homework due date has passed")
	ErrAlreadySubmitted     = errors.New("homework already submitted")
	ErrNotSubmitted         = errors.New("submission has not been submitted yet")
	ErrAlreadyGraded        = errors.New("submission already graded")
	ErrNotGraded            = errors.New("submission has not been graded")

	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("conflict")
)

// ===== VALIDATION ERRORS =====

type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve))
	for i, e := range ve {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(messages, "; ")
}

func NewValidationError(field, message string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: message, Value: value}
}

// ===== BUSINESS RULE ERRORS =====

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

func (e *BusinessRuleError) WithContext(key string, value interface{}) *BusinessRuleError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ===== PERMISSION ERRORS =====

type PermissionError struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s %s (%s)", e.Action, e.Resource, e.Reason)
}

func NewPermissionError(resource, action, reason string) *PermissionError {
	return &PermissionError{Resource: resource, Action: action, Reason: reason}
}
