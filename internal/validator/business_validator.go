package validator

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/HMPS-2025/homework-service/internal/models"
)

func registerCustomRules(v *validator.Validate) {
	_ = v.RegisterValidation("school_grade", validateSchoolGrade)
	_ = v.RegisterValidation("question_type", validateQuestionType)
	_ = v.RegisterValidation("future_date", validateFutureDate)
	_ = v.RegisterValidation("marks_range", validateMarksRange)
}

func validateSchoolGrade(fl validator.FieldLevel) bool {
	grade := fl.Field().Int()
	return grade >= 6 && grade <= 11
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.IsValidQuestionType(models.QuestionType(fl.Field().String()))
}

// validateFutureDate passes optional dates through: the validator hands
// custom rules the dereferenced element, so a nil *time.Time arrives as
// the zero time.
func validateFutureDate(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	if date.IsZero() {
		return true
	}
	return date.After(time.Now())
}

func validateMarksRange(fl validator.FieldLevel) bool {
	marks := fl.Field().Float()
	return marks >= 0.5 && marks <= 20
}

// Allowed homework status transitions. Publishing from draft or
// scheduled, close only from active.
var homeworkTransitions = map[models.HomeworkStatus][]models.HomeworkStatus{
	models.HomeworkDraft:     {models.HomeworkScheduled, models.HomeworkActive},
	models.HomeworkScheduled: {models.HomeworkActive, models.HomeworkDraft},
	models.HomeworkActive:    {models.HomeworkClosed},
	models.HomeworkClosed:    {},
}

func IsValidHomeworkTransition(from, to models.HomeworkStatus) bool {
	for _, allowed := range homeworkTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Submission lifecycle is linear: draft -> submitted -> graded. Graded
// submissions can be re-graded in place (graded -> graded) on override.
var submissionTransitions = map[models.SubmissionStatus][]models.SubmissionStatus{
	models.SubmissionDraft:     {models.SubmissionSubmitted},
	models.SubmissionSubmitted: {models.SubmissionGraded},
	models.SubmissionGraded:    {models.SubmissionGraded},
}

func IsValidSubmissionTransition(from, to models.SubmissionStatus) bool {
	for _, allowed := range submissionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
