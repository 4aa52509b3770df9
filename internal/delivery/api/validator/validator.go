// Package validator plugs go-playground/validator into echo.
package validator

import (
	"reflect"
	"strings"

	domainerrors "chatty/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is a VALIDATION_FAILED application error carrying the rejected fields.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+":"+f.Rule)
	}

	return "validation failed: " + strings.Join(names, ", ")
}

// HTTPCode returns the HTTP status code
func (e *ValidationError) HTTPCode() int { return domainerrors.ErrValidationFailed.HTTPCode() }

// ErrorCode returns the business error code
func (e *ValidationError) ErrorCode() string { return domainerrors.ErrValidationFailed.ErrorCode() }

// Message returns the user-friendly error message
func (e *ValidationError) Message() string {
	for _, f := range e.Fields {
		if f.Rule != "required" {
			return domainerrors.ErrValidationFailed.Message()
		}
	}

	return "All fields are required"
}

// Details returns the rejected field names.
func (e *ValidationError) Details() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}

	return strings.Join(names, ",")
}

// Validator implements echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}

		return name
	})

	return &Validator{validate: v}
}

// Validate checks a bound request struct.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate request")
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}

	return &ValidationError{Fields: fields}
}
