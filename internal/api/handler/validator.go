package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/creatorspace/community-api/internal/core/domain"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// It registers the "role" tag and reports fields by their query/json names.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json", "form", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Failures are returned as
// a ValidationError keyed by field name.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve))
			for _, fe := range ve {
				fields[fe.Field()] = fieldError(fe)
			}
			return domain.NewValidationError("Validation failed", fields)
		}
		return err
	}
	return nil
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "role", "role|eq=all":
		return fmt.Sprintf("%s must be 'all' or one of: %s", field, strings.Join(domain.RoleNames(), ", "))
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
