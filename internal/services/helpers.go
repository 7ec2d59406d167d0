package services

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/HMPS-2025/homework-service/internal/models"
	"github.com/HMPS-2025/homework-service/internal/validator"
)

func toValidationErrors(err error) error {
	fieldErrors := validator.FieldErrors(err)
	if len(fieldErrors) == 0 {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field,
			Message: fe.Message,
			Rule:    fe.Rule,
		})
	}
	return out
}

func timePtr(now time.Time) *time.Time {
	return &now
}

func stringPtr(s string) *string {
	return &s
}

func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}

// sanitizeQuestionContent removes answer keys from a question payload so
// students only see what they need to answer.
func sanitizeQuestionContent(qt models.QuestionType, content datatypes.JSON) datatypes.JSON {
	switch qt {
	case models.MCQ:
		var c models.MCQContent
		if err := json.Unmarshal(content, &c); err != nil {
			return content
		}
		return mustJSON(map[string]interface{}{"options": c.Options})
	case models.ShortAnswer:
		return mustJSON(map[string]interface{}{})
	case models.Descriptive:
		var c models.DescriptiveContent
		if err := json.Unmarshal(content, &c); err != nil {
			return content
		}
		return mustJSON(map[string]interface{}{
			"min_words": c.MinWords,
			"max_words": c.MaxWords,
		})
	}
	return content
}
