package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/component"
	"github.com/KOMKZ/go-yogan-eventbus/errcode"
	"github.com/KOMKZ/go-yogan-eventbus/validator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ component.ConfigLoader = (*Loader)(nil)

type staticSource struct {
	name     string
	priority int
	data     map[string]interface{}
	err      error
}

func (s staticSource) Name() string                          { return s.name }
func (s staticSource) Priority() int                         { return s.priority }
func (s staticSource) Load() (map[string]interface{}, error) { return s.data, s.err }

type eventSection struct {
	PoolSize    int           `mapstructure:"pool_size"`
	Nonblocking bool          `mapstructure:"nonblocking"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_PriorityOverrides(t *testing.T) {
	l := NewLoader()
	// added out of order on purpose
	l.AddSource(staticSource{name: "high", priority: 50, data: map[string]interface{}{"event.pool_size": 32}})
	l.AddSource(staticSource{name: "low", priority: 10, data: map[string]interface{}{
		"event.pool_size":   8,
		"event.nonblocking": true,
	}})
	require.NoError(t, l.Load())

	assert.Equal(t, 32, l.GetInt("event.pool_size"))
	assert.True(t, l.GetBool("event.nonblocking"))
	assert.True(t, l.IsSet("event"))
	assert.False(t, l.IsSet("telemetry"))
}

func TestLoader_UnmarshalSection(t *testing.T) {
	l := NewLoader()
	l.AddSource(staticSource{priority: 1, data: map[string]interface{}{
		"event.pool_size":   "16", // env values arrive as strings
		"event.nonblocking": "true",
		"event.timeout":     "2s",
	}})
	require.NoError(t, l.Load())

	var cfg eventSection
	require.NoError(t, l.Unmarshal("event", &cfg))
	assert.Equal(t, 16, cfg.PoolSize)
	assert.True(t, cfg.Nonblocking)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoader_SourceError(t *testing.T) {
	l := NewLoader()
	l.AddSource(staticSource{name: "broken", data: nil, err: errors.New("boom")})

	err := l.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLoader_SetAndReload(t *testing.T) {
	l := NewLoader()
	l.AddSource(staticSource{priority: 1, data: map[string]interface{}{"logger.level": "info"}})
	require.NoError(t, l.Load())

	l.Set("logger.level", "debug")
	assert.Equal(t, "debug", l.GetString("logger.level"))

	require.NoError(t, l.Reload())
	assert.Equal(t, "info", l.GetString("logger.level"))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "event:\n  pool_size: 4\n  metrics:\n    enabled: false\n")

	data, err := NewFileSource(path, 10).Load()
	require.NoError(t, err)
	assert.Equal(t, 4, data["event.pool_size"])
	assert.Equal(t, false, data["event.metrics.enabled"])

	missing, err := NewFileSource(filepath.Join(dir, "nope.yaml"), 10).Load()
	require.NoError(t, err)
	assert.Empty(t, missing)

	bad := writeFile(t, dir, "bad.yaml", "event: [unclosed")
	_, err = NewFileSource(bad, 10).Load()
	assert.Error(t, err)
}

func TestEnvSource_Prefix(t *testing.T) {
	t.Setenv("EVBTEST_EVENT_POOL_SIZE", "12")
	t.Setenv("EVBTEST_LOGGER_LEVEL", "warn")

	data, err := NewEnvSource("EVBTEST", 50).Load()
	require.NoError(t, err)
	assert.Equal(t, "12", data["event.pool_size"])
	assert.Equal(t, "warn", data["logger.level"])
}

func TestEnvSource_Bindings(t *testing.T) {
	t.Setenv("EVBTEST_LEVEL", "error")

	s := NewEnvSource("EVBTEST", 50)
	s.AddBinding("logger.level", "LEVEL")
	s.AddBinding("logger.encoding", "ENCODING")

	data, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"logger.level": "error"}, data)
}

func TestFlagSource(t *testing.T) {
	type flags struct {
		PoolSize int    `config:"event.pool_size"`
		Level    string `config:"logger.level,telemetry.service_name"`
		Metrics  bool   `config:"event.metrics.enabled"`
		Ignored  string
	}

	data, err := NewFlagSource(&flags{PoolSize: 3, Level: "debug", Ignored: "x"}, 100).Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"event.pool_size":        3,
		"logger.level":           "debug",
		"telemetry.service_name": "debug",
	}, data)

	_, err = NewFlagSource(42, 100).Load()
	assert.Error(t, err)

	var nilFlags *flags
	data, err = NewFlagSource(nilFlags, 100).Load()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLoaderBuilder_Layers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "event:\n  pool_size: 4\nlogger:\n  level: info\n")
	writeFile(t, dir, "dev.yaml", "logger:\n  level: debug\n")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("EVBBUILD_EVENT_NONBLOCKING", "true")

	loader, err := NewLoaderBuilder().
		WithConfigPath(dir).
		WithEnvPrefix("EVBBUILD").
		WithFlags(struct {
			PoolSize int `config:"event.pool_size"`
		}{PoolSize: 9}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 9, loader.GetInt("event.pool_size"))
	assert.Equal(t, "debug", loader.GetString("logger.level"))
	assert.True(t, loader.GetBool("event.nonblocking"))
	assert.Len(t, loader.GetLoadedFiles(), 2)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	assert.Equal(t, "dev", GetEnv())

	t.Setenv("ENV", "staging")
	assert.Equal(t, "staging", GetEnv())

	t.Setenv("APP_ENV", "prod")
	assert.Equal(t, "prod", GetEnv())
}

type fakeValidator struct{ err error }

func (f fakeValidator) Validate() error { return f.err }

func (c eventSection) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PoolSize, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Required),
	)
}

func TestValidateAll(t *testing.T) {
	assert.NoError(t, ValidateAll(fakeValidator{}, fakeValidator{}))

	other := errors.New("other")
	err := ValidateAll(fakeValidator{err: assert.AnError}, fakeValidator{}, fakeValidator{err: other})
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, err, other, "failures after the first are still reported")
}

func TestLoader_ValidateSections(t *testing.T) {
	l := NewLoader()
	l.AddSource(staticSource{priority: 1, data: map[string]interface{}{
		"event.pool_size": -1,
		"event.timeout":   "1s",
	}})
	require.NoError(t, l.Load())

	cfg := eventSection{Timeout: time.Second}
	err := l.ValidateSections(Section{Key: "event", Target: &cfg})
	require.ErrorIs(t, err, validator.ErrValidationFailed)
	assert.Equal(t, -1, cfg.PoolSize)

	var layered *errcode.LayeredError
	require.True(t, errors.As(err, &layered))
	assert.Equal(t, "event", layered.Data()["section"])

	// unset sections validate their defaults
	missing := eventSection{}
	assert.ErrorIs(t, l.ValidateSections(Section{Key: "telemetry", Target: &missing}), validator.ErrValidationFailed)
	ok := eventSection{Timeout: time.Second}
	assert.NoError(t, l.ValidateSections(Section{Key: "telemetry", Target: &ok}))
}
