package event

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/component"
	"github.com/KOMKZ/go-yogan-eventbus/health"
	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"github.com/KOMKZ/go-yogan-eventbus/validator"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultStopTimeout = 5 * time.Second

// Component wires a Dispatcher from the "event" config section.
// It also satisfies samber/do's Shutdowner and Healthchecker contracts.
type Component struct {
	config     Config
	logger     *logger.CtxZapLogger
	collector  component.MetricsCollector
	tracer     trace.Tracer
	pool       *ants.Pool
	metrics    *EventMetrics
	dispatcher *Dispatcher
}

// ComponentOption event component options
type ComponentOption func(*Component)

// WithComponentLogger sets the component logger
func WithComponentLogger(l *logger.CtxZapLogger) ComponentOption {
	return func(c *Component) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetricsCollector registers EventMetrics with collector during Init
func WithMetricsCollector(collector component.MetricsCollector) ComponentOption {
	return func(c *Component) {
		c.collector = collector
	}
}

// WithComponentTracer sets the tracer handed to the dispatcher
func WithComponentTracer(t trace.Tracer) ComponentOption {
	return func(c *Component) {
		c.tracer = t
	}
}

// NewComponent creates the event component
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
	return component.ComponentEvent
}

// DependsOn returns the dependent components
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
		"optional:" + component.ComponentTelemetry,
	}
}

// Init loads the configuration, then builds the pool, the metrics and the dispatcher
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.config = DefaultConfig()
	if loader != nil && loader.IsSet("event") {
		if err := loader.Unmarshal("event", &c.config); err != nil {
			return fmt.Errorf("unmarshal event config failed: %w", err)
		}
	}
	if err := validator.Validate("event", c.config); err != nil {
		return err
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "⏭️ event component disabled")
		return nil
	}

	opts := []DispatcherOption{WithLogger(c.logger), WithTracer(c.tracer)}

	if c.config.PoolSize > 0 {
		pool, err := ants.NewPool(c.config.PoolSize,
			ants.WithNonblocking(c.config.Nonblocking),
			ants.WithPanicHandler(func(p interface{}) {
				c.logger.Error("async dispatch worker panicked", zap.Any("panic", p))
			}),
		)
		if err != nil {
			return fmt.Errorf("create event pool failed: %w", err)
		}
		c.pool = pool
		opts = append(opts, WithExecutor(pool))
	}

	if c.config.Metrics && c.collector != nil {
		m := NewEventMetrics(EventMetricsConfig{Enabled: true, RecordInflight: true})
		if err := c.collector.Register(m); err != nil {
			c.releasePool()
			return fmt.Errorf("register event metrics failed: %w", err)
		}
		c.metrics = m
		opts = append(opts, WithMetrics(m))
	}

	c.dispatcher = NewDispatcher(opts...)

	c.logger.InfoCtx(ctx, "✅ event component initialized",
		zap.String("bus_id", c.dispatcher.ID()),
		zap.Int("pool_size", c.config.PoolSize),
		zap.Bool("nonblocking", c.config.Nonblocking),
		zap.Bool("metrics", c.metrics != nil))
	return nil
}

// Start starts the component
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop closes the dispatcher, then waits for pool workers until ctx's deadline
func (c *Component) Stop(ctx context.Context) error {
	if c.dispatcher == nil {
		return nil
	}
	c.dispatcher.Close()

	timeout := defaultStopTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if c.pool != nil {
		if err := c.pool.ReleaseTimeout(timeout); err != nil {
			c.logger.WarnCtx(ctx, "event pool release timed out", zap.Error(err))
			return err
		}
		c.pool = nil
	}

	c.logger.InfoCtx(ctx, "✅ event component stopped")
	return nil
}

// Shutdown lets samber/do stop the component
func (c *Component) Shutdown(ctx context.Context) error {
	return c.Stop(ctx)
}

// Check reports a closed dispatcher as unhealthy and a full pool as degraded.
// A disabled component is healthy.
func (c *Component) Check(ctx context.Context) error {
	if c.dispatcher != nil && c.dispatcher.IsClosed() {
		return ErrDispatcherClosed
	}
	if pool := c.pool; pool != nil && pool.Free() == 0 {
		return health.Degraded(fmt.Errorf("async pool saturated: %d of %d workers busy", pool.Running(), pool.Cap()))
	}
	return nil
}

// HealthCheck lets samber/do check the component
func (c *Component) HealthCheck(ctx context.Context) error {
	return c.Check(ctx)
}

// GetDispatcher returns the dispatcher; nil when disabled or before Init
func (c *Component) GetDispatcher() *Dispatcher {
	return c.dispatcher
}

// GetConfig returns the effective configuration
func (c *Component) GetConfig() Config {
	return c.config
}

// IsEnabled whether the dispatcher was built
func (c *Component) IsEnabled() bool {
	return c.config.Enabled && c.dispatcher != nil
}

func (c *Component) releasePool() {
	if c.pool != nil {
		c.pool.Release()
		c.pool = nil
	}
}

var (
	_ component.Component     = (*Component)(nil)
	_ component.HealthChecker = (*Component)(nil)
)
