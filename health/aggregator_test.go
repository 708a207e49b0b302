package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name  string
	err   error
	delay time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func TestAggregator_Check(t *testing.T) {
	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{
			name: "no checkers",
			want: StatusHealthy,
		},
		{
			name: "all healthy",
			checkers: []Checker{
				&mockChecker{name: "event"},
				&mockChecker{name: "telemetry"},
			},
			want: StatusHealthy,
		},
		{
			name: "one degraded",
			checkers: []Checker{
				&mockChecker{name: "event", err: Degraded(errors.New("pool saturated"))},
				&mockChecker{name: "telemetry"},
			},
			want: StatusDegraded,
		},
		{
			name: "unhealthy beats degraded",
			checkers: []Checker{
				&mockChecker{name: "event", err: Degraded(errors.New("pool saturated"))},
				&mockChecker{name: "telemetry", err: errors.New("exporter down")},
			},
			want: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator(time.Second)
			a.Register(tt.checkers...)

			resp := a.Check(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checkers))
			assert.Equal(t, tt.want == StatusHealthy, resp.IsHealthy())
			assert.Equal(t, tt.want == StatusDegraded, resp.IsDegraded())
		})
	}
}

func TestAggregator_CheckResultFields(t *testing.T) {
	a := NewAggregator(time.Second)
	a.Register(&mockChecker{name: "event", err: errors.New("dispatcher is closed")})
	a.SetMetadata("bus_id", "b-1")

	resp := a.Check(context.Background())

	r := resp.Checks["event"]
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, "dispatcher is closed", r.Error)
	assert.False(t, r.Timestamp.IsZero())
	assert.Equal(t, "b-1", resp.Metadata["bus_id"])
}

func TestAggregator_Timeout(t *testing.T) {
	a := NewAggregator(20 * time.Millisecond)
	a.Register(&mockChecker{name: "slow", delay: time.Second}, &mockChecker{name: "fast"})

	start := time.Now()
	resp := a.Check(context.Background())

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks["slow"].Error, "deadline exceeded")
	assert.Equal(t, StatusHealthy, resp.Checks["fast"].Status)
}

func TestDegraded(t *testing.T) {
	assert.NoError(t, Degraded(nil))

	cause := errors.New("pool saturated")
	err := Degraded(cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "degraded: pool saturated", err.Error())
	assert.Equal(t, StatusDegraded, statusOf(err))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{}.Validate())
}

func TestNewAggregator_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, NewAggregator(0).timeout)
}
