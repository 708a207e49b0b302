package telemetry

import (
	"context"
	"testing"

	"github.com/KOMKZ/go-yogan-eventbus/component"
	"github.com/KOMKZ/go-yogan-eventbus/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var _ component.Component = (*Component)(nil)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Exporter = "jaeger"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.SamplerRatio = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Enabled = true
	cfg.ServiceName = ""
	assert.Error(t, cfg.Validate())
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]interface{}{
		"deployment": map[string]interface{}{"environment": "test"},
		"replicas":   3,
	}, "")
	assert.Equal(t, map[string]string{
		"deployment.environment": "test",
		"replicas":               "3",
	}, flat)
}

func TestComponent_Disabled(t *testing.T) {
	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), config.NewLoader()))

	assert.False(t, c.IsEnabled())
	assert.Equal(t, component.ComponentTelemetry, c.Name())
	assert.NotNil(t, c.Registry())
	assert.NotNil(t, c.MeterProvider())

	_, span := c.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	assert.NoError(t, c.Stop(context.Background()))
}

func TestComponent_EnabledWithManualReader(t *testing.T) {
	loader := config.NewLoader()
	loader.Set("telemetry.enabled", true)
	loader.Set("telemetry.exporter", "noop")
	loader.Set("telemetry.namespace", "it")
	loader.Set("telemetry.resource_attrs", map[string]interface{}{"team": "platform"})

	reader := sdkmetric.NewManualReader()
	c := NewComponent(WithReader(reader))
	require.NoError(t, c.Init(context.Background(), loader))
	defer func() { _ = c.Stop(context.Background()) }()

	assert.True(t, c.IsEnabled())

	_, span := c.Tracer("test").Start(context.Background(), "sampled")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, c.Registry().Register(&stubProvider{name: "event", enabled: true}))
	counter, err := c.Registry().GetMeter("event").Int64Counter("fired_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
	assert.Equal(t, "it_event", rm.ScopeMetrics[0].Scope.Name)

	v, ok := rm.Resource.Set().Value("team")
	require.True(t, ok)
	assert.Equal(t, "platform", v.AsString())
}

func TestComponent_InvalidConfig(t *testing.T) {
	loader := config.NewLoader()
	loader.Set("telemetry.sampler", "sometimes")

	err := NewComponent().Init(context.Background(), loader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate telemetry config")
}

func TestComponent_CheckAfterStop(t *testing.T) {
	loader := config.NewLoader()
	loader.Set("telemetry.enabled", true)
	loader.Set("telemetry.exporter", "noop")

	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), loader))
	assert.NoError(t, c.Check(context.Background()))

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Error(t, c.Check(context.Background()))
}
