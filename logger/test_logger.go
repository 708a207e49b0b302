package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestCtxLogger records entries in memory so unit tests can assert on them.
//
//	testLogger := logger.NewTestCtxLogger()
//	bus := event.NewDispatcher(event.WithLogger(testLogger.Logger()))
//	bus.Fire(ctx, &OrderPlaced{})
//	assert.True(t, testLogger.HasLog("debug", "event fired"))
type TestCtxLogger struct {
	logs   *observer.ObservedLogs
	logger *CtxZapLogger
}

// LogEntry a recorded log entry
type LogEntry struct {
	Level   string
	Message string
	TraceID string
	Fields  map[string]interface{}
}

// NewTestCtxLogger creates an in-memory logger capturing every level
func NewTestCtxLogger() *TestCtxLogger {
	core, logs := observer.New(zapcore.DebugLevel)

	cfg := DefaultManagerConfig()
	cfg.EnableStacktrace = false
	return &TestCtxLogger{
		logs: logs,
		logger: &CtxZapLogger{
			base:   zap.New(core),
			module: "test",
			config: &cfg,
		},
	}
}

// Logger returns the CtxZapLogger to hand to the code under test
func (t *TestCtxLogger) Logger() *CtxZapLogger {
	return t.logger
}

// HasLog reports whether an entry with level and message was recorded
func (t *TestCtxLogger) HasLog(level, message string) bool {
	for _, e := range t.Logs() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

// HasLogWithField reports whether an entry carries fieldKey=fieldValue
func (t *TestCtxLogger) HasLogWithField(level, message, fieldKey string, fieldValue interface{}) bool {
	for _, e := range t.Logs() {
		if e.Level == level && e.Message == message {
			if val, ok := e.Fields[fieldKey]; ok && val == fieldValue {
				return true
			}
		}
	}
	return false
}

// CountLogs counts entries at level
func (t *TestCtxLogger) CountLogs(level string) int {
	count := 0
	for _, e := range t.Logs() {
		if e.Level == level {
			count++
		}
	}
	return count
}

// Logs returns a snapshot of all recorded entries
func (t *TestCtxLogger) Logs() []LogEntry {
	observed := t.logs.All()
	entries := make([]LogEntry, 0, len(observed))
	for _, o := range observed {
		fields := o.ContextMap()
		traceID, _ := fields["trace_id"].(string)
		entries = append(entries, LogEntry{
			Level:   o.Level.String(),
			Message: o.Message,
			TraceID: traceID,
			Fields:  fields,
		})
	}
	return entries
}

// Clear drops recorded entries
func (t *TestCtxLogger) Clear() {
	t.logs.TakeAll()
}
