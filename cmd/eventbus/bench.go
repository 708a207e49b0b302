package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/event"
	"golang.org/x/sync/errgroup"
)

type benchOptions struct {
	Workers int  `flag:"workers,w" default:"4" usage:"concurrent firing goroutines"`
	Events  int  `flag:"events,n" default:"10000" usage:"events fired per worker"`
	Churn   bool `flag:"churn" default:"true" usage:"register and unregister listeners while firing"`
}

type benchTick struct {
	event.BaseEvent
	Worker int
	Seq    int
}

type benchResult struct {
	Fired     int64
	Delivered int64
	Churned   int64
	Elapsed   time.Duration
}

func (r benchResult) print(out io.Writer) {
	rate := float64(r.Fired) / r.Elapsed.Seconds()
	fmt.Fprintf(out, "fired=%d delivered=%d churned=%d elapsed=%s rate=%.0f events/s\n",
		r.Fired, r.Delivered, r.Churned, r.Elapsed.Round(time.Millisecond), rate)
}

// runBench fires from opts.Workers goroutines; with Churn a sidecar keeps
// registering and unregistering a listener so every fire races a rebake.
func runBench(ctx context.Context, bus *event.Dispatcher, opts benchOptions) (benchResult, error) {
	if opts.Workers <= 0 || opts.Events <= 0 {
		return benchResult{}, fmt.Errorf("workers and events must be positive, got %d and %d", opts.Workers, opts.Events)
	}

	var res benchResult
	var delivered atomic.Int64
	count := func(context.Context, *benchTick) error {
		delivered.Add(1)
		return nil
	}
	for p := int8(0); p < 3; p++ {
		if _, err := event.Subscribe(bus, p, count); err != nil {
			return res, err
		}
	}
	if _, err := bus.RegisterListener(event.TypeOf[event.Event](), 0, func(context.Context, event.Event) error {
		delivered.Add(1)
		return nil
	}); err != nil {
		return res, err
	}

	firing, stop := context.WithCancel(ctx)
	defer stop()

	var churned atomic.Int64
	churnDone := make(chan error, 1)
	if opts.Churn {
		go func() {
			churnDone <- churn(firing, bus, &churned)
		}()
	} else {
		churnDone <- nil
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			for i := 0; i < opts.Events; i++ {
				if err := bus.Fire(gctx, &benchTick{Worker: w, Seq: i}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := g.Wait()
	res.Elapsed = time.Since(start)

	stop()
	if churnErr := <-churnDone; err == nil {
		err = churnErr
	}

	res.Fired = int64(opts.Workers * opts.Events)
	res.Delivered = delivered.Load()
	res.Churned = churned.Load()
	return res, err
}

func churn(ctx context.Context, bus *event.Dispatcher, n *atomic.Int64) error {
	noop := func(context.Context, *benchTick) error { return nil }
	for ctx.Err() == nil {
		l, err := event.Subscribe(bus, 1, noop)
		if err != nil {
			return err
		}
		bus.UnregisterListener(l)
		n.Add(1)
	}
	return nil
}
