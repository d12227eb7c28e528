package validation

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/osa911/caddymanager/internal/utils"
)

// RegisterValidators registers custom validators
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("sitename", validateSiteName); err != nil {
		return fmt.Errorf("failed to register sitename validator: %w", err)
	}
	if err := v.RegisterValidation("upstreamhost", validateUpstreamHost); err != nil {
		return fmt.Errorf("failed to register upstreamhost validator: %w", err)
	}
	return nil
}

// RegisterWithGin installs the custom validators on gin's binding engine
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return RegisterValidators(v)
}

// validateSiteName checks the host block label
func validateSiteName(fl validator.FieldLevel) bool {
	return utils.IsValidSiteName(fl.Field().String())
}

// validateUpstreamHost checks the reverse_proxy target host
func validateUpstreamHost(fl validator.FieldLevel) bool {
	return utils.IsValidUpstreamHost(fl.Field().String())
}

// ValidationError represents a validation error
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// FormatValidationError formats validation errors into a user-friendly response
func FormatValidationError(err error) []ValidationError {
	var errs []ValidationError
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Field: e.Field(),
				Tag:   e.Tag(),
				Value: e.Param(),
			})
		}
	}
	return errs
}
