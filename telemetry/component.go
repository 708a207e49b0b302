package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/KOMKZ/go-yogan-eventbus/component"
	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"github.com/KOMKZ/go-yogan-eventbus/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Component OpenTelemetry component: tracer provider, meter provider and the metrics registry
type Component struct {
	config         Config
	logger         *logger.CtxZapLogger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *MetricsRegistry
	extraReaders   []sdkmetric.Reader
}

// ComponentOption telemetry component options
type ComponentOption func(*Component)

// WithComponentLogger sets the component logger
func WithComponentLogger(l *logger.CtxZapLogger) ComponentOption {
	return func(c *Component) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReader attaches an extra metric reader (e.g. sdkmetric.NewManualReader in tests)
func WithReader(r sdkmetric.Reader) ComponentOption {
	return func(c *Component) {
		c.extraReaders = append(c.extraReaders, r)
	}
}

// NewComponent creates the telemetry component
func NewComponent(opts ...ComponentOption) *Component {
	c := &Component{
		config: DefaultConfig(),
		logger: logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the component name
func (c *Component) Name() string {
	return component.ComponentTelemetry
}

// DependsOn returns the dependent components
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
	}
}

// Init reads the telemetry section and builds the providers
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.config = DefaultConfig()
	if loader != nil && loader.IsSet("telemetry") {
		if err := loader.Unmarshal("telemetry", &c.config); err != nil {
			return fmt.Errorf("unmarshal telemetry config failed: %w", err)
		}
	}
	if err := validator.Validate("telemetry", c.config); err != nil {
		return fmt.Errorf("validate telemetry config failed: %w", err)
	}

	if !c.config.Enabled {
		c.registry = NewMetricsRegistry(noopmetric.NewMeterProvider(),
			WithNamespace(c.config.Namespace), WithLogger(c.logger))
		c.logger.InfoCtx(ctx, "OpenTelemetry is disabled")
		return nil
	}

	res, err := newResource(ctx, c.config)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	if c.tracerProvider, err = newTracerProvider(c.config, res); err != nil {
		return err
	}
	if c.meterProvider, err = newMeterProvider(c.config, res, c.extraReaders...); err != nil {
		return err
	}

	otel.SetTracerProvider(c.tracerProvider)
	otel.SetMeterProvider(c.meterProvider)
	c.registry = NewMetricsRegistry(c.meterProvider,
		WithNamespace(c.config.Namespace), WithLogger(c.logger))

	c.logger.InfoCtx(ctx, "✅ OpenTelemetry initialized",
		zap.String("service", c.config.ServiceName),
		zap.String("exporter", c.config.Exporter))
	return nil
}

// Start starts the component
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop flushes and shuts down the providers
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tracerProvider != nil {
		errs = append(errs, c.tracerProvider.Shutdown(ctx))
		c.tracerProvider = nil
	}
	if c.meterProvider != nil {
		errs = append(errs, c.meterProvider.Shutdown(ctx))
		c.meterProvider = nil
	}
	return errors.Join(errs...)
}

// Tracer returns a tracer (noop when disabled)
func (c *Component) Tracer(name string) trace.Tracer {
	if c.tracerProvider == nil {
		return nooptrace.NewTracerProvider().Tracer(name)
	}
	return c.tracerProvider.Tracer(name)
}

// MeterProvider returns the meter provider (noop when disabled)
func (c *Component) MeterProvider() metric.MeterProvider {
	if c.meterProvider == nil {
		return noopmetric.NewMeterProvider()
	}
	return c.meterProvider
}

// Registry returns the metrics registry; nil before Init
func (c *Component) Registry() *MetricsRegistry {
	return c.registry
}

// IsEnabled whether telemetry is enabled
func (c *Component) IsEnabled() bool {
	return c.config.Enabled
}

// Check fails once an enabled component has been stopped
func (c *Component) Check(ctx context.Context) error {
	if c.config.Enabled && c.meterProvider == nil {
		return errors.New("telemetry providers are shut down")
	}
	return nil
}

// Shutdown lets samber/do stop the component
func (c *Component) Shutdown(ctx context.Context) error {
	return c.Stop(ctx)
}
