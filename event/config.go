package event

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config event component settings
type Config struct {
	Enabled     bool `mapstructure:"enabled"`
	PoolSize    int  `mapstructure:"pool_size"`   // ants pool for async chains, 0 runs them on the caller
	Nonblocking bool `mapstructure:"nonblocking"` // pool rejects instead of waiting when full
	Metrics     bool `mapstructure:"metrics"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		PoolSize: 100,
		Metrics:  true,
	}
}

// Validate implements config.Validator
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PoolSize, validation.Min(0), validation.Max(1_000_000)),
	)
}
