package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-eventbus/config"
	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/KOMKZ/go-yogan-eventbus/health"
	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"github.com/KOMKZ/go-yogan-eventbus/telemetry"
	"github.com/KOMKZ/go-yogan-eventbus/validator"
	"github.com/samber/do/v2"
)

// ConfigOptions where configuration comes from
type ConfigOptions struct {
	ConfigPath string      // directory with config.yaml and <env>.yaml
	ConfigFile string      // optional explicit file
	EnvPrefix  string      // e.g. "EVENTBUS"
	Flags      interface{} // `config`-tagged flag struct
}

// RegisterCoreProviders registers every core provider; all are lazy
func RegisterCoreProviders(injector do.Injector, opts ConfigOptions) {
	// Layer 0: config
	do.Provide(injector, ProvideConfigLoader(opts))

	// Layer 1: logging and telemetry
	do.Provide(injector, ProvideLoggerManager)
	do.Provide(injector, ProvideTelemetry)
	do.Provide(injector, ProvideMetricsRegistry)

	// Layer 2: the bus
	do.Provide(injector, ProvideEventComponent)
	do.Provide(injector, ProvideEventDispatcher)

	// Layer 3: health over everything above
	do.Provide(injector, ProvideHealthAggregator)
}

// ProvideConfigLoader builds the layered config loader; it has no dependencies
func ProvideConfigLoader(opts ConfigOptions) func(do.Injector) (*config.Loader, error) {
	return config.ProvideLoader(config.ProvideLoaderOptions{
		ConfigPath: opts.ConfigPath,
		ConfigFile: opts.ConfigFile,
		EnvPrefix:  opts.EnvPrefix,
		Flags:      opts.Flags,
	})
}

// ValidateConfig checks the event, health and telemetry sections before any component is built
func ValidateConfig(loader *config.Loader) error {
	eventCfg := event.DefaultConfig()
	healthCfg := health.DefaultConfig()
	telemetryCfg := telemetry.DefaultConfig()
	return loader.ValidateSections(
		config.Section{Key: "event", Target: &eventCfg},
		config.Section{Key: "health", Target: &healthCfg},
		config.Section{Key: "telemetry", Target: &telemetryCfg},
	)
}

// ProvideLoggerManager reads the "logger" section, falling back to defaults without a loader
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	cfg := logger.DefaultManagerConfig()

	loader, err := do.Invoke[*config.Loader](i)
	if err == nil && loader.IsSet("logger") {
		if err := loader.Unmarshal("logger", &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal logger config failed: %w", err)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return logger.NewManager(cfg), nil
}

// ProvideCtxLogger returns a provider of the module's logger
func ProvideCtxLogger(module string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return logger.NewNopLogger(), nil
		}
		return mgr.GetLogger(module), nil
	}
}

// ProvideTelemetry initializes the telemetry component
func ProvideTelemetry(i do.Injector) (*telemetry.Component, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	comp := telemetry.NewComponent(telemetry.WithComponentLogger(moduleLogger(i, "telemetry")))
	if err := comp.Init(context.Background(), loader); err != nil {
		return nil, err
	}
	return comp, nil
}

// ProvideMetricsRegistry exposes the telemetry component's registry
func ProvideMetricsRegistry(i do.Injector) (*telemetry.MetricsRegistry, error) {
	comp, err := do.Invoke[*telemetry.Component](i)
	if err != nil {
		return nil, err
	}
	return comp.Registry(), nil
}

// ProvideEventComponent initializes the event component.
// Telemetry is optional: without it the bus runs unmetered on the global tracer.
func ProvideEventComponent(i do.Injector) (*event.Component, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}

	opts := []event.ComponentOption{event.WithComponentLogger(moduleLogger(i, "event"))}
	if tel, err := do.Invoke[*telemetry.Component](i); err == nil {
		opts = append(opts,
			event.WithMetricsCollector(tel.Registry()),
			event.WithComponentTracer(tel.Tracer("github.com/KOMKZ/go-yogan-eventbus/event")))
	}

	comp := event.NewComponent(opts...)
	if err := comp.Init(context.Background(), loader); err != nil {
		return nil, err
	}
	return comp, nil
}

// ProvideEventDispatcher exposes the dispatcher; fails when the component is disabled
func ProvideEventDispatcher(i do.Injector) (*event.Dispatcher, error) {
	comp, err := do.Invoke[*event.Component](i)
	if err != nil {
		return nil, err
	}
	if !comp.IsEnabled() {
		return nil, ErrComponentNotFound("event dispatcher (event.enabled=false)")
	}
	return comp.GetDispatcher(), nil
}

// ProvideHealthAggregator registers the event and telemetry checks under the "health" timeout
func ProvideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	cfg := health.DefaultConfig()
	if loader, err := do.Invoke[*config.Loader](i); err == nil && loader.IsSet("health") {
		if err := loader.Unmarshal("health", &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal health config failed: %w", err)
		}
	}
	if err := validator.Validate("health", cfg); err != nil {
		return nil, err
	}

	agg := health.NewAggregator(cfg.Timeout)
	if tel, err := do.Invoke[*telemetry.Component](i); err == nil {
		agg.Register(tel)
	}
	comp, err := do.Invoke[*event.Component](i)
	if err != nil {
		return nil, err
	}
	agg.Register(comp)
	if comp.IsEnabled() {
		agg.SetMetadata("bus_id", comp.GetDispatcher().ID())
	}
	return agg, nil
}

func moduleLogger(i do.Injector, module string) *logger.CtxZapLogger {
	if mgr, err := do.Invoke[*logger.Manager](i); err == nil {
		return mgr.GetLogger(module)
	}
	return logger.NewNopLogger()
}

// ErrComponentNotFound component not found error
func ErrComponentNotFound(name string) error {
	return &ComponentNotFoundError{Name: name}
}

// ComponentNotFoundError component not found error type
type ComponentNotFoundError struct {
	Name string
}

func (e *ComponentNotFoundError) Error() string {
	return "component not found: " + e.Name
}
