package config

import (
	"fmt"

	"github.com/KOMKZ/go-yogan-eventbus/validator"
	"go.uber.org/multierr"
)

// Validator implemented by every component config section
type Validator interface {
	Validate() error
}

// Section a config key and the value it decodes into.
// Target should be a pointer already holding the section's defaults.
type Section struct {
	Key    string
	Target Validator
}

// Validate reports field failures as validator.ErrValidationFailed tagged with Key
func (s Section) Validate() error {
	return validator.Validate(s.Key, s.Target)
}

// ValidateAll runs every validator and combines the failures,
// so one pass reports every broken section
func ValidateAll(validators ...Validator) error {
	var errs error
	for _, v := range validators {
		errs = multierr.Append(errs, v.Validate())
	}
	return errs
}

// ValidateSections decodes each set section over its target and validates them all.
// Unset sections are validated as their defaults.
func (l *Loader) ValidateSections(sections ...Section) error {
	validators := make([]Validator, 0, len(sections))
	for _, s := range sections {
		if l.IsSet(s.Key) {
			if err := l.Unmarshal(s.Key, s.Target); err != nil {
				return fmt.Errorf("unmarshal %s config failed: %w", s.Key, err)
			}
		}
		validators = append(validators, s)
	}
	return ValidateAll(validators...)
}
