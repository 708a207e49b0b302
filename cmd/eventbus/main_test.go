package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/KOMKZ/go-yogan-eventbus/health"
	"github.com/KOMKZ/go-yogan-eventbus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "logger:\n  enable_console: false\nevent:\n  pool_size: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func assertInOrder(t *testing.T, out string, parts ...string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		idx := strings.Index(out, p)
		require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", p, out)
		assert.Greater(t, idx, last, "%q out of order", p)
		last = idx
	}
}

func TestDemoCommand(t *testing.T) {
	out, err := execute(t, "demo", "--config", writeConfig(t))
	require.NoError(t, err)

	assertInOrder(t, out,
		"walker: booked a beagle",
		`shelter: registered animal "Rex"`,
		"neighbour: Rex says woof",
	)
	assertInOrder(t, out,
		"mailer: confirmation for A-1",
		"audit: A-1 cancelled=false",
		"fraud: holding order A-2",
		"audit: A-2 cancelled=true",
	)
	assert.NotContains(t, out, "confirmation for A-2")
	assertInOrder(t, out, "snapshot products", "rebuilt products", "== registry ==")
}

func TestBenchCommand(t *testing.T) {
	out, err := execute(t, "bench", "--config", writeConfig(t), "--workers", "2", "--events", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "fired=100 delivered=400")
}

func TestBenchCommand_RejectsBadArgs(t *testing.T) {
	_, err := execute(t, "bench", "--config", writeConfig(t), "--workers", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers and events must be positive")
}

func TestRunBench_DeliversToEveryListener(t *testing.T) {
	bus := testutil.NewBusTestContext(t, testutil.BusTestOptions{Metrics: true})

	res, err := runBench(context.Background(), bus.Dispatcher, benchOptions{Workers: 4, Events: 100, Churn: true})
	require.NoError(t, err)

	assert.Equal(t, int64(400), res.Fired)
	// three typed listeners plus the catch-all
	assert.Equal(t, int64(1600), res.Delivered)
	assert.Equal(t, int64(400), testutil.SumInt64(t, bus.Reader, "event_fired_total", "", ""))
}

func TestRunBench_WithoutChurn(t *testing.T) {
	bus := testutil.NewBusTestContext(t, testutil.BusTestOptions{})

	res, err := runBench(context.Background(), bus.Dispatcher, benchOptions{Workers: 1, Events: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Churned)
	assert.Equal(t, int64(40), res.Delivered)
}

func TestFlagsOverrideConfig(t *testing.T) {
	flags := &cliFlags{ConfigDir: writeConfig(t), PoolSize: 7}
	app := newCLIApp(flags)

	err := app.Execute(context.Background(), func(context.Context, *event.Dispatcher) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 7, app.ConfigLoader().GetInt("event.pool_size"))
}

func TestHealthCommand(t *testing.T) {
	out, err := execute(t, "health", "--config", writeConfig(t))
	require.NoError(t, err)

	var report health.Response
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, health.StatusHealthy, report.Status)
	assert.Equal(t, health.StatusHealthy, report.Checks["event"].Status)
}
