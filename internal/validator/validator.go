package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validation with the project's custom
// tags registered.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// json tag names in error messages, not Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomRules(v)

	return &Validator{validate: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// FieldError is one failed validation, shaped for API responses.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    string `json:"rule"`
}

// FieldErrors extracts structured errors from a Struct() failure.
func FieldErrors(err error) []FieldError {
	var out []FieldError
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fe := range validationErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "school_grade":
		return fmt.Sprintf("%s must be between 6 and 11", fe.Field())
	case "question_type":
		return fmt.Sprintf("%s must be mcq, short_answer or descriptive", fe.Field())
	case "future_date":
		return fmt.Sprintf("%s must be in the future", fe.Field())
	case "marks_range":
		return fmt.Sprintf("%s must be between 0.5 and 20", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
