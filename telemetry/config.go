package telemetry

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config OpenTelemetry configuration
type Config struct {
	Enabled        bool                   `mapstructure:"enabled"`
	ServiceName    string                 `mapstructure:"service_name"`
	ServiceVersion string                 `mapstructure:"service_version"`
	Namespace      string                 `mapstructure:"namespace"`       // meter name prefix
	Exporter       string                 `mapstructure:"exporter"`        // stdout, noop
	Sampler        string                 `mapstructure:"sampler"`         // always_on, always_off, trace_id_ratio
	SamplerRatio   float64                `mapstructure:"sampler_ratio"`   // used by trace_id_ratio
	ExportInterval time.Duration          `mapstructure:"export_interval"` // metric export period
	ResourceAttrs  map[string]interface{} `mapstructure:"resource_attrs"`  // extra resource attributes, nested maps are flattened
}

// DefaultConfig returns the default configuration (disabled)
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "eventbus",
		ServiceVersion: "0.1.0",
		Namespace:      "eventbus",
		Exporter:       "stdout",
		Sampler:        "parent_based_always_on",
		SamplerRatio:   1.0,
		ExportInterval: 10 * time.Second,
	}
}

// Validate implements config.Validator
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Exporter, validation.In("stdout", "noop")),
		validation.Field(&c.Sampler, validation.In("always_on", "always_off", "trace_id_ratio", "parent_based_always_on")),
		validation.Field(&c.SamplerRatio, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.ExportInterval, validation.Min(time.Duration(0))),
	)
}
