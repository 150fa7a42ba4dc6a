// Package validation wraps go-playground/validator and turns its failures
// into field errors that serialize cleanly in API responses.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

type Errors []FieldError

func (errs Errors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(errs), strings.Join(parts, "; "))
}

// Add appends a field error.
func (errs *Errors) Add(field, message string) {
	*errs = append(*errs, FieldError{Field: field, Message: message})
}

// Err returns nil for an empty list so callers can `return errs.Err()`.
func (errs Errors) Err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Single is a one-entry Errors.
func Single(field, message string) Errors {
	return Errors{{Field: field, Message: message}}
}

// messages renders a failed tag; %[1]s is the field, %[2]s the tag param.
var messages = map[string]string{
	"required": "%[1]s is required",
	"min":      "%[1]s must be at least %[2]s",
	"max":      "%[1]s must be at most %[2]s",
	"mongodb":  "%[1]s must be a valid MongoDB ObjectID",
	"oneof":    "%[1]s must be one of: %[2]s",
	"datetime": "%[1]s must match the layout %[2]s",
	"gtfield":  "%[1]s must be after %[2]s",
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Struct checks the struct tags of s. Tag failures come back as Errors;
// anything else (a nil or non-struct argument) is returned as is.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var tagErrs validator.ValidationErrors
	if !errors.As(err, &tagErrs) {
		return err
	}

	out := make(Errors, 0, len(tagErrs))
	for _, fe := range tagErrs {
		msg := fe.Error()
		if format, ok := messages[fe.Tag()]; ok {
			msg = fmt.Sprintf(format, fe.Field(), fe.Param())
		}
		out.Add(fe.Field(), msg)
	}
	return out
}
