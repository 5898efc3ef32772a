package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/distribution/reference"
	"github.com/go-playground/validator/v10"

	"github.com/nmstate/testbox/config"
)

// ErrValidationFailed is returned when struct validation fails.
var ErrValidationFailed = errors.New("validation failed")

// configValidator is the package-level validator instance
var configValidator *validator.Validate

// nameValidator checks names that end up in Docker API calls
var nameValidator = config.NewNameValidator()

func init() {
	configValidator = validator.New()

	_ = configValidator.RegisterValidation("dockerimage", validateDockerImage)
	_ = configValidator.RegisterValidation("duration_gte", validateDurationGTE)
	_ = configValidator.RegisterValidation("ifname", validateInterfaceName)
	_ = configValidator.RegisterValidation("resourcename", validateResourceName)
	_ = configValidator.RegisterValidation("envvar", validateEnvVar)
}

// ValidateConfig validates a configuration struct using struct tags
func ValidateConfig(cfg any) error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	validationErrors, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatValidationError(e))
	}

	return fmt.Errorf("%w:\n  %s", ErrValidationFailed, strings.Join(messages, "\n  "))
}

// formatValidationError formats a single validation error for display
func formatValidationError(e validator.FieldError) string {
	field := e.Namespace()
	param := e.Param()
	value := e.Value()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: required field is empty", field)
	case "gte":
		return fmt.Sprintf("%s: must be >= %s (got: %v)", field, param, value)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s] (got: %v)", field, param, value)
	case "startswith":
		return fmt.Sprintf("%s: must start with %q (got: %v)", field, param, value)
	case "dockerimage":
		return fmt.Sprintf("%s: must be a valid Docker image reference (got: %v)", field, value)
	case "duration_gte":
		return fmt.Sprintf("%s: duration must be >= %s (got: %v)", field, param, value)
	case "ifname":
		return fmt.Sprintf("%s: must be a valid interface name (got: %v)", field, value)
	case "resourcename":
		return fmt.Sprintf("%s: must be a valid container or network name (got: %v)", field, value)
	case "envvar":
		return fmt.Sprintf("%s: must have the form NAME=value (got: %v)", field, value)
	default:
		return fmt.Sprintf("%s: validation '%s' failed (got: %v)", field, e.Tag(), value)
	}
}

// validateDockerImage validates a Docker image reference
func validateDockerImage(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Empty is valid (required check handles this)
	}
	_, err := reference.ParseNormalizedNamed(value)
	return err == nil
}

// validateDurationGTE validates that a duration is >= a minimum value
func validateDurationGTE(fl validator.FieldLevel) bool {
	minDur, err := time.ParseDuration(fl.Param())
	if err != nil {
		return false
	}
	if dur, ok := fl.Field().Interface().(time.Duration); ok {
		return dur >= minDur
	}
	return true
}

func validateInterfaceName(fl validator.FieldLevel) bool {
	return nameValidator.ValidateInterface(fl.Field().String()) == nil
}

func validateResourceName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return nameValidator.ValidateResourceName(value) == nil
}

func validateEnvVar(fl validator.FieldLevel) bool {
	return nameValidator.ValidateEnv(fl.Field().String()) == nil
}
