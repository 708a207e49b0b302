package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ===== ManagerConfig =====

func TestManagerConfig_ApplyDefaults(t *testing.T) {
	cfg := ManagerConfig{Level: "debug"}
	cfg.ApplyDefaults()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, "logs", cfg.BaseLogDir)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, "trace_id", cfg.TraceIDKey)
	assert.False(t, cfg.EnableFile)
	assert.NoError(t, cfg.Validate())
}

func TestManagerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ManagerConfig)
		wantErr string
	}{
		{"bad level", func(c *ManagerConfig) { c.Level = "trace" }, "invalid log level"},
		{"bad encoding", func(c *ManagerConfig) { c.Encoding = "xml" }, "invalid log encoding"},
		{"max size", func(c *ManagerConfig) { c.MaxSize = 0 }, "MaxSize"},
		{"file without dir", func(c *ManagerConfig) { c.EnableFile = true; c.BaseLogDir = "" }, "base_log_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultManagerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("debug").String())
	assert.Equal(t, "error", ParseLevel("error").String())
	assert.Equal(t, "info", ParseLevel("nonsense").String())
}

// ===== Manager =====

func TestManager_GetLoggerCachesPerModule(t *testing.T) {
	m := NewManager(ManagerConfig{EnableConsole: false})
	defer m.CloseAll()

	a := m.GetLogger("event")
	b := m.GetLogger("event")
	c := m.GetLogger("future")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "event", a.Module())
}

func TestManager_FileOutputSplitsByLevel(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{
		Level:      "debug",
		EnableFile: true,
		BaseLogDir: dir,
	})

	log := m.GetLogger("event")
	log.Info("listener registered", zap.String("type", "*OrderPlaced"))
	log.Error("listener failed")
	m.CloseAll()

	info, err := os.ReadFile(filepath.Join(dir, "event", "event-info.log"))
	require.NoError(t, err)
	errs, err := os.ReadFile(filepath.Join(dir, "event", "event-error.log"))
	require.NoError(t, err)

	assert.Contains(t, string(info), "listener registered")
	assert.NotContains(t, string(info), "listener failed")
	assert.Contains(t, string(errs), "listener failed")
	assert.Contains(t, string(errs), `"module":"event"`)
}

// ===== CtxZapLogger =====

func TestCtxZapLogger_TraceIDFromContextKey(t *testing.T) {
	tl := NewTestCtxLogger()
	ctx := context.WithValue(context.Background(), "trace_id", "abc-123")

	tl.Logger().InfoCtx(ctx, "fired")

	logs := tl.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "abc-123", logs[0].TraceID)
}

func TestCtxZapLogger_TraceIDFromSpan(t *testing.T) {
	tl := NewTestCtxLogger()
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tl.Logger().WarnCtx(ctx, "slow listener")

	assert.True(t, tl.HasLogWithField("warn", "slow listener", "trace_id", traceID.String()))
}

func TestCtxZapLogger_With(t *testing.T) {
	tl := NewTestCtxLogger()
	child := tl.Logger().With(zap.String("bus_id", "b1"))

	child.Debug("baked")

	assert.True(t, tl.HasLogWithField("debug", "baked", "bus_id", "b1"))
	assert.Equal(t, 1, tl.CountLogs("debug"))

	tl.Clear()
	assert.Empty(t, tl.Logs())
}

func TestNewNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.ErrorCtx(context.Background(), "dropped")
		l.With(zap.Int("n", 1)).Info("dropped")
	})
}

func TestCaptureStacktrace(t *testing.T) {
	stack := CaptureStacktrace(1, 2)
	assert.NotEmpty(t, stack)
	assert.LessOrEqual(t, strings.Count(stack, "\n\t"), 2)

	cfg := DefaultManagerConfig()
	assert.True(t, shouldCaptureStacktrace("error", cfg))
	assert.False(t, shouldCaptureStacktrace("warn", cfg))
	cfg.EnableStacktrace = false
	assert.False(t, shouldCaptureStacktrace("error", cfg))
}
