package validator

import (
	"errors"
	"fmt"
	"strings"

	"deskbook/pkg/logger"
	"deskbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type AccountValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAccountValidator(log *logger.Logger) *AccountValidator {
	return &AccountValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *AccountValidator) ValidateRegister(req *model.RegisterRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *AccountValidator) ValidateLogin(req *model.LoginRequest) error {
	return v.translate(v.validate.Struct(req))
}

func (v *AccountValidator) ValidateProfileUpdate(update *model.ProfileUpdate) error {
	if err := v.translate(v.validate.Struct(update)); err != nil {
		return err
	}

	if update.FullName == "" && update.PhoneNumber == "" {
		return ValidationErrors{
			ValidationError{
				Field:   "ProfileUpdate",
				Message: "at least one of full_name or phone_number is required",
			},
		}
	}

	return nil
}

func (v *AccountValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var validationErrors ValidationErrors
	for _, fieldErr := range validationErrs {
		message := fieldErr.Error()

		switch fieldErr.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fieldErr.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", fieldErr.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155550123)", fieldErr.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return validationErrors
}
