package dto

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var visitorIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.:]{1,128}$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("visitor_id", validateVisitorID)
}

func GetValidator() *validator.Validate {
	return validate
}

func validateVisitorID(fl validator.FieldLevel) bool {
	return visitorIDRegex.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param() + " characters"
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param() + " characters"
			case "oneof":
				message = fieldError.Field() + " must be one of: " + fieldError.Param()
			case "visitor_id":
				message = fieldError.Field() + " is not a valid visitor id"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}
