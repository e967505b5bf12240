// Package validation runs go-playground/validator struct tags and turns the
// result into readable messages.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its tags.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

// Payload validates a request body, returning a VALIDATION_FAILED domain
// error listing every offending field.
func Payload(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	fields := make(map[string]any, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fieldName(fe)] = formatField(fe)
	}
	return apperrors.NewValidationError("request validation failed", map[string]any{"fields": fields})
}

func formatError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fmt.Sprintf("%s: %s", fe.Namespace(), formatField(fe)))
	}
	return errors.New(strings.Join(messages, "; "))
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func formatField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt", "gte":
		return fmt.Sprintf("must be %s %s", comparison(fe.Tag()), fe.Param())
	case "gtfield", "gtefield":
		return fmt.Sprintf("must be %s %s", comparison(fe.Tag()), fe.Param())
	case "numeric":
		return "must be numeric"
	default:
		return "is invalid"
	}
}

func comparison(tag string) string {
	if strings.HasPrefix(tag, "gte") {
		return "at least"
	}
	return "greater than"
}
