package httputil

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/medflow/timesheet/pkg/errors"
)

var (
	validate    = validator.New()
	clockFormat = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

func init() {
	// hhmm validates an "HH:mm" wall-clock string
	validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return clockFormat.MatchString(fl.Field().String())
	})
}

// Validate validates a struct using go-playground/validator
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.BadRequest(err.Error())
		}

		details := make(map[string]string)
		for _, e := range validationErrors {
			details[e.Namespace()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "datetime":
		return "must be a date formatted as " + e.Param()
	case "hhmm":
		return "must be a time formatted as HH:mm"
	default:
		return "invalid value"
	}
}
