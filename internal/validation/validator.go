// Package validation wraps go-playground/validator for request DTOs.
// Field names in errors are taken from the json, form or query tag so
// that clients see the names they sent.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule, as rendered to clients.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Get returns the shared validator instance.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(tagName)
		_ = validate.RegisterValidation("booking_ref", func(fl validator.FieldLevel) bool {
			return service.ValidReference(fl.Field().String())
		})
	})
	return validate
}

func tagName(f reflect.StructField) string {
	for _, key := range []string{"json", "form", "query"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Struct validates s and returns nil or a 422 *apperror.AppError whose
// details list every failed field.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Internal(err)
	}
	fields := make([]FieldError, len(verrs))
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Message: translate(fe)}
		msgs[i] = fields[i].Message
	}
	return apperror.Validation(strings.Join(msgs, "; "), map[string]any{"fields": fields})
}

// Echo adapts the package to echo.Validator.
type Echo struct{}

func (Echo) Validate(i any) error { return Struct(i) }

var plain = map[string]string{
	"required":    "%s is required",
	"email":       "%s must be a valid email address",
	"booking_ref": "%s must be a 7 character booking reference",
}

var withParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"len":   "%s must be %s characters long",
}

func translate(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	if tmpl, ok := plain[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := withParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
