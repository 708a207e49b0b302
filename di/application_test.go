package di

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/KOMKZ/go-yogan-eventbus/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct {
	event.BaseEvent
	N int
}

type indexJob struct {
	event.AsyncBase
	Path string
}

const quietLogger = `
logger:
  level: debug
  enable_console: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(quietLogger+body), 0o644))
	return dir
}

func TestAppState_String(t *testing.T) {
	tests := []struct {
		state AppState
		want  string
	}{
		{StateInit, "Init"},
		{StateSetup, "Setup"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateStopped, "Stopped"},
		{AppState(99), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestNewDoApplication_Defaults(t *testing.T) {
	app := NewDoApplication()

	assert.Equal(t, StateInit, app.State())
	assert.Equal(t, "eventbus", app.name)
	assert.Equal(t, "0.0.1", app.version)
	assert.Equal(t, "./configs", app.configPath)
	assert.NotNil(t, app.Injector())
	assert.Nil(t, app.Logger())
	assert.Nil(t, app.ConfigLoader())
}

func TestNewDoApplication_Options(t *testing.T) {
	app := NewDoApplication(
		WithName("orders"),
		WithVersion("1.2.3"),
		WithConfigPath("/etc/orders"),
		WithConfigFile("/etc/orders/override.yaml"),
		WithConfigPrefix("ORDERS"),
	)

	assert.Equal(t, "orders", app.name)
	assert.Equal(t, "1.2.3", app.version)
	assert.Equal(t, "/etc/orders", app.configPath)
	assert.Equal(t, "/etc/orders/override.yaml", app.configFile)
	assert.Equal(t, "ORDERS", app.configPrefix)
}

func TestDoApplication_Lifecycle(t *testing.T) {
	dir := writeConfig(t, `
event:
  enabled: true
  pool_size: 4
`)
	var calls []string
	app := NewDoApplication(
		WithConfigPath(dir),
		WithOnSetup(func(*DoApplication) error { calls = append(calls, "setup"); return nil }),
		WithOnReady(func(*DoApplication) error { calls = append(calls, "ready"); return nil }),
		WithOnShutdown(func(context.Context) error { calls = append(calls, "shutdown"); return nil }),
	)

	require.NoError(t, app.Setup())
	assert.Equal(t, StateSetup, app.State())
	assert.NotNil(t, app.Logger())
	assert.Equal(t, 4, app.ConfigLoader().GetInt("event.pool_size"))

	require.NoError(t, app.Start())
	assert.Equal(t, StateRunning, app.State())

	bus, err := app.Dispatcher()
	require.NoError(t, err)

	var got int
	_, err = event.Subscribe(bus, 0, func(_ context.Context, e *pinged) error {
		got = e.N
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Fire(context.Background(), &pinged{N: 7}))
	assert.Equal(t, 7, got)

	done := make(chan string, 1)
	_, err = event.SubscribeAsync(bus, 0, func(_ context.Context, e *indexJob, c *event.Controller) error {
		done <- e.Path
		c.Proceed()
		return nil
	})
	require.NoError(t, err)
	_, err = bus.FireAsync(context.Background(), &indexJob{Path: "/a"}).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/a", <-done)

	assert.True(t, app.IsHealthy())

	require.NoError(t, app.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, app.State())
	assert.True(t, bus.IsClosed())
	assert.ErrorIs(t, app.Context().Err(), context.Canceled)
	assert.Equal(t, []string{"setup", "ready", "shutdown"}, calls)
}

func TestDoApplication_SetupCallbackError(t *testing.T) {
	app := NewDoApplication(
		WithConfigPath(writeConfig(t, "")),
		WithOnSetup(func(*DoApplication) error { return errors.New("boom") }),
	)

	err := app.Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup callback failed")
}

func TestDoApplication_ReadyCallbackError(t *testing.T) {
	app := NewDoApplication(
		WithConfigPath(writeConfig(t, "")),
		WithOnReady(func(*DoApplication) error { return errors.New("boom") }),
	)
	require.NoError(t, app.Setup())

	err := app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ready callback failed")
	require.NoError(t, app.Shutdown(context.Background()))
}

func TestDoApplication_SetupFailsOnInvalidConfig(t *testing.T) {
	app := NewDoApplication(WithConfigPath(writeConfig(t, `
event:
  pool_size: -1
health:
  timeout: 0s
`)))

	err := app.Setup()
	require.Error(t, err)
	assert.ErrorIs(t, err, validatorErr())
	assert.Contains(t, err.Error(), "invalid event configuration")
	assert.Contains(t, err.Error(), "invalid health configuration")
	assert.Nil(t, app.Logger())
	assert.NotEqual(t, StateRunning, app.State())
}

func TestDoApplication_ShutdownCallbackErrorIsLogged(t *testing.T) {
	app := NewDoApplication(
		WithConfigPath(writeConfig(t, "")),
		WithOnShutdown(func(context.Context) error { return errors.New("flush failed") }),
	)
	require.NoError(t, app.Setup())
	require.NoError(t, app.Start())

	assert.NoError(t, app.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, app.State())
}

func TestDoApplication_HealthCheckReportsClosedBus(t *testing.T) {
	app := NewDoApplication(WithConfigPath(writeConfig(t, "")))
	require.NoError(t, app.Setup())
	require.NoError(t, app.Start())

	bus, err := app.Dispatcher()
	require.NoError(t, err)

	report, err := app.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, report.IsHealthy())
	assert.Equal(t, bus.ID(), report.Metadata["bus_id"])

	bus.Close()

	assert.False(t, app.IsHealthy())
	report, err = app.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, health.StatusUnhealthy, report.Status)
	assert.Equal(t, health.StatusUnhealthy, report.Checks["event"].Status)
	require.NoError(t, app.Shutdown(context.Background()))
}
