// Package validator turns ozzo-validation failures into coded LayeredErrors.
package validator

import (
	"errors"

	"github.com/KOMKZ/go-yogan-eventbus/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidationFailed carries the per-field messages under Data()["fields"]
var ErrValidationFailed = errcode.Register(errcode.New(10, 1, "config", "config.validation_failed", "configuration validation failed"))

// Validatable anything with a Validate method, usually a config section
type Validatable interface {
	Validate() error
}

// Validate runs v.Validate and converts ozzo field errors.
// Other errors pass through untouched.
func Validate(section string, v Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return ConvertValidationError(section, fieldErrs)
	}
	return err
}

// ConvertValidationError flattens field errors into ErrValidationFailed
func ConvertValidationError(section string, fieldErrs validation.Errors) error {
	fields := make(map[string]string, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}

	return ErrValidationFailed.
		WithMsgf("invalid %s configuration", section).
		WithData("section", section).
		WithData("fields", fields).
		Wrap(fieldErrs)
}
