package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signedUp struct {
	event.BaseEvent
	Email string
}

type exportJob struct {
	event.AsyncBase
	Rows int
}

func TestNewBusTestContext_SyncAndMetrics(t *testing.T) {
	rec := NewRecorder()
	bus := NewBusTestContext(t, BusTestOptions{
		Metrics: true,
		SetupFunc: func(c *BusTestContext) error {
			if _, err := event.Subscribe(c.Dispatcher, 1, Record[*signedUp](rec, "welcome-mail")); err != nil {
				return err
			}
			_, err := c.Dispatcher.RegisterListener(event.TypeOf[*signedUp](), 0, rec.Handler("audit"))
			return err
		},
	})

	MustFire(t, bus.Dispatcher, &signedUp{Email: "a@b.c"})
	MustFire(t, bus.Dispatcher, &signedUp{Email: "d@e.f"})

	assert.Equal(t, []string{"audit", "welcome-mail", "audit", "welcome-mail"}, rec.Labels())
	assert.Equal(t, 2, rec.Count("audit"))
	assert.Equal(t, int64(2), SumInt64(t, bus.Reader, "event_fired_total", "", ""))
	assert.Equal(t, int64(4), SumInt64(t, bus.Reader, "event_listener_invoked_total", "result", "ok"))
	assert.Equal(t, int64(0), SumInt64(t, bus.Reader, "no_such_metric", "", ""))
	assert.True(t, bus.Logger.HasLog("debug", "event fired"))

	rec.Reset()
	assert.Empty(t, rec.Labels())
}

func TestFireAndWait_OnPool(t *testing.T) {
	rec := NewRecorder()
	bus := NewBusTestContext(t, BusTestOptions{PoolSize: 2})
	require.NotNil(t, bus.Pool)

	_, err := bus.Dispatcher.RegisterAsyncListener(event.TypeOf[*exportJob](), 0, rec.AsyncHandler("first"))
	require.NoError(t, err)
	_, err = bus.Dispatcher.RegisterAsyncListener(event.TypeOf[*exportJob](), 1, rec.AsyncHandler("second"))
	require.NoError(t, err)

	require.NoError(t, FireAndWait(t, bus.Dispatcher, &exportJob{Rows: 10}))
	assert.Equal(t, []string{"first", "second"}, rec.Labels())
}

func TestFireAndWait_ReturnsChainFailure(t *testing.T) {
	bus := NewBusTestContext(t, BusTestOptions{})
	boom := errors.New("disk full")

	_, err := bus.Dispatcher.RegisterAsyncListener(event.TypeOf[*exportJob](), 0,
		func(_ context.Context, _ event.Event, c *event.Controller) error {
			c.Fail(boom)
			return nil
		})
	require.NoError(t, err)

	err = FireAndWait(t, bus.Dispatcher, &exportJob{})
	assert.ErrorIs(t, err, boom)
}
