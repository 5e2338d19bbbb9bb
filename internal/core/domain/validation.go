// Package domain provides validation using go-playground/validator/v10 with
// custom validators for filesystem-oriented settings.
package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with custom validators used by
// the guard's settings and value objects.
type Validator struct {
	validator *validator.Validate
}

// defaultValidator backs the value-object constructors so each construction
// does not rebuild the registration table.
var defaultValidator = NewValidator()

// NewValidator creates a new validation instance with custom validators registered.
func NewValidator() *Validator {
	validate := validator.New()

	_ = validate.RegisterValidation("command", validateCommandCustom)
	_ = validate.RegisterValidation("abs_path", validateAbsolutePathCustom)

	return &Validator{
		validator: validate,
	}
}

// Validate validates a struct using the registered validators.
func (v *Validator) Validate(s interface{}) error {
	return v.validator.Struct(s)
}

// ValidateVar validates a single variable using the specified tag.
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validator.Var(field, tag)
}

// Command custom validator: the value must contain at least one
// non-whitespace character.
func validateCommandCustom(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Absolute path custom validator.
func validateAbsolutePathCustom(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return true // Empty values handled by 'required' tag
	}
	return filepath.IsAbs(path)
}

// FormatValidationErrors renders validator errors as a single readable message.
func FormatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field %q failed rule %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
