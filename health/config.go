package health

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config the "health" section
type Config struct {
	Timeout time.Duration `mapstructure:"timeout"` // bound on one aggregated check
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Second}
}

// Validate implements config.Validator
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}
