package di

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/config"
	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/KOMKZ/go-yogan-eventbus/health"
	"github.com/KOMKZ/go-yogan-eventbus/logger"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// AppState application lifecycle state
type AppState int

const (
	StateInit AppState = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

// String state name
func (s AppState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSetup:
		return "Setup"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// DoApplication hosts a bus inside a samber/do container.
// The container shuts components down in reverse dependency order.
type DoApplication struct {
	injector *do.RootScope

	configPath   string
	configFile   string
	configPrefix string
	flags        interface{}
	configLoader *config.Loader

	logger *logger.CtxZapLogger

	ctx    context.Context
	cancel context.CancelFunc
	state  AppState
	mu     sync.RWMutex

	name    string
	version string

	onSetup    func(*DoApplication) error
	onReady    func(*DoApplication) error
	onShutdown func(context.Context) error
}

// DoAppOption application option
type DoAppOption func(*DoApplication)

// WithConfigPath sets the config directory
func WithConfigPath(path string) DoAppOption {
	return func(app *DoApplication) {
		app.configPath = path
	}
}

// WithConfigFile sets an explicit config file layered over the directory
func WithConfigFile(file string) DoAppOption {
	return func(app *DoApplication) {
		app.configFile = file
	}
}

// WithConfigPrefix sets the environment variable prefix
func WithConfigPrefix(prefix string) DoAppOption {
	return func(app *DoApplication) {
		app.configPrefix = prefix
	}
}

// WithFlags layers a `config`-tagged flag struct on top of everything else
func WithFlags(flags interface{}) DoAppOption {
	return func(app *DoApplication) {
		app.flags = flags
	}
}

// WithName sets the application name
func WithName(name string) DoAppOption {
	return func(app *DoApplication) {
		app.name = name
	}
}

// WithVersion sets the application version
func WithVersion(version string) DoAppOption {
	return func(app *DoApplication) {
		app.version = version
	}
}

// WithOnSetup runs after the core providers are registered
func WithOnSetup(fn func(*DoApplication) error) DoAppOption {
	return func(app *DoApplication) {
		app.onSetup = fn
	}
}

// WithOnReady runs once the bus is started
func WithOnReady(fn func(*DoApplication) error) DoAppOption {
	return func(app *DoApplication) {
		app.onReady = fn
	}
}

// WithOnShutdown runs before the container shuts down
func WithOnShutdown(fn func(context.Context) error) DoAppOption {
	return func(app *DoApplication) {
		app.onShutdown = fn
	}
}

// NewDoApplication creates an application
func NewDoApplication(opts ...DoAppOption) *DoApplication {
	ctx, cancel := context.WithCancel(context.Background())

	app := &DoApplication{
		injector:   do.New(),
		configPath: "./configs",
		ctx:        ctx,
		cancel:     cancel,
		state:      StateInit,
		name:       "eventbus",
		version:    "0.0.1",
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// Injector returns the container
func (app *DoApplication) Injector() *do.RootScope {
	return app.injector
}

// Logger returns the application logger
func (app *DoApplication) Logger() *logger.CtxZapLogger {
	return app.logger
}

// ConfigLoader returns the config loader
func (app *DoApplication) ConfigLoader() *config.Loader {
	return app.configLoader
}

// Context is cancelled on shutdown
func (app *DoApplication) Context() context.Context {
	return app.ctx
}

// Dispatcher returns the bus; valid after Setup
func (app *DoApplication) Dispatcher() (*event.Dispatcher, error) {
	return do.Invoke[*event.Dispatcher](app.injector)
}

// State returns the current state
func (app *DoApplication) State() AppState {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.state
}

func (app *DoApplication) setState(state AppState) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.state = state
}

// Setup loads and validates config, builds the logger and registers the core providers
func (app *DoApplication) Setup() error {
	app.setState(StateSetup)

	RegisterCoreProviders(app.injector, ConfigOptions{
		ConfigPath: app.configPath,
		ConfigFile: app.configFile,
		EnvPrefix:  app.configPrefix,
		Flags:      app.flags,
	})
	do.ProvideNamed(app.injector, "logger:"+app.name, ProvideCtxLogger(app.name))

	loader, err := do.Invoke[*config.Loader](app.injector)
	if err != nil {
		return fmt.Errorf("init config failed: %w", err)
	}
	app.configLoader = loader
	if err := ValidateConfig(loader); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := do.InvokeNamed[*logger.CtxZapLogger](app.injector, "logger:"+app.name)
	if err != nil {
		return fmt.Errorf("init logger failed: %w", err)
	}
	app.logger = appLogger

	app.logger.Info("🔧 application setting up",
		zap.String("name", app.name),
		zap.String("version", app.version),
		zap.String("config_path", app.configPath),
		zap.Strings("config_files", loader.GetLoadedFiles()),
	)

	if app.onSetup != nil {
		if err := app.onSetup(app); err != nil {
			return fmt.Errorf("setup callback failed: %w", err)
		}
	}

	return nil
}

// Start brings up telemetry and the bus, then runs the ready callback
func (app *DoApplication) Start() error {
	if err := StartCoreComponents(app.ctx, app.injector, app.logger); err != nil {
		return fmt.Errorf("start components failed: %w", err)
	}

	app.setState(StateRunning)

	app.logger.Info("✅ application started",
		zap.String("name", app.name),
		zap.String("version", app.version),
		zap.String("state", app.State().String()),
	)

	if app.onReady != nil {
		if err := app.onReady(app); err != nil {
			return fmt.Errorf("ready callback failed: %w", err)
		}
	}

	return nil
}

// Run sets up, starts, then blocks until SIGINT or SIGTERM
func (app *DoApplication) Run() error {
	if err := app.Setup(); err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}

	app.waitForSignal()
	return nil
}

func (app *DoApplication) waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("📥 signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		app.logger.Error("shutdown failed", zap.Error(err))
	}
}

// Shutdown runs the shutdown callback and stops the container.
// Callback failures are logged; container failures are returned.
func (app *DoApplication) Shutdown(ctx context.Context) error {
	app.setState(StateStopping)
	log := app.logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	log.Info("🔄 shutting down")

	if app.onShutdown != nil {
		if err := app.onShutdown(ctx); err != nil {
			log.Warn("shutdown callback failed", zap.Error(err))
		}
	}

	app.cancel()

	var shutdownErr error
	if report := app.injector.ShutdownWithContext(ctx); report != nil && !report.Succeed {
		shutdownErr = fmt.Errorf("injector shutdown failed: %w", report)
	}

	app.setState(StateStopped)
	log.Info("✅ application stopped")

	return shutdownErr
}

// HealthCheck runs every service's health check
func (app *DoApplication) HealthCheck() map[string]error {
	return app.injector.HealthCheck()
}

// Health runs the aggregated bus health report
func (app *DoApplication) Health(ctx context.Context) (*health.Response, error) {
	agg, err := do.Invoke[*health.Aggregator](app.injector)
	if err != nil {
		return nil, err
	}
	return agg.Check(ctx), nil
}

// IsHealthy reports whether every health check passed
func (app *DoApplication) IsHealthy() bool {
	for _, err := range app.HealthCheck() {
		if err != nil {
			return false
		}
	}
	return true
}
