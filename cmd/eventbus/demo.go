package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/event"
)

type Animal struct {
	Name string
}

type Dog struct {
	Animal
	Breed string
}

type Puppy struct {
	Dog
	AgeWeeks int
}

type Barker interface {
	Bark() string
}

func (d *Dog) Bark() string { return d.Name + " says woof" }

type OrderPlaced struct {
	event.BaseEvent
	event.Cancellation
	OrderID string
	Total   int
}

type ReindexJob struct {
	event.AsyncBase
	Index string
}

// runDemo walks through hierarchy delivery, cancellation and an async chain
func runDemo(ctx context.Context, bus *event.Dispatcher, out io.Writer) error {
	fmt.Fprintln(out, "== hierarchy ==")
	if _, err := event.Subscribe(bus, 0, func(_ context.Context, a *Animal) error {
		fmt.Fprintf(out, "  shelter: registered animal %q\n", a.Name)
		return nil
	}, event.WithName("shelter")); err != nil {
		return err
	}
	if _, err := event.Subscribe(bus, -1, func(_ context.Context, d *Dog) error {
		fmt.Fprintf(out, "  walker: booked a %s\n", d.Breed)
		return nil
	}, event.WithName("walker")); err != nil {
		return err
	}
	if _, err := event.Subscribe(bus, 5, func(_ context.Context, b Barker) error {
		fmt.Fprintf(out, "  neighbour: %s\n", b.Bark())
		return nil
	}, event.WithName("neighbour")); err != nil {
		return err
	}
	if err := bus.Fire(ctx, &Puppy{Dog: Dog{Animal: Animal{Name: "Rex"}, Breed: "beagle"}, AgeWeeks: 9}); err != nil {
		return err
	}

	fmt.Fprintln(out, "== cancellation ==")
	if _, err := event.Subscribe(bus, -10, func(_ context.Context, o *OrderPlaced) error {
		if o.Total > 1000 {
			fmt.Fprintf(out, "  fraud: holding order %s\n", o.OrderID)
			o.Cancel()
		}
		return nil
	}, event.WithName("fraud")); err != nil {
		return err
	}
	if _, err := event.Subscribe(bus, 0, func(_ context.Context, o *OrderPlaced) error {
		fmt.Fprintf(out, "  mailer: confirmation for %s\n", o.OrderID)
		return nil
	}, event.WithName("mailer")); err != nil {
		return err
	}
	if _, err := event.Subscribe(bus, 10, func(_ context.Context, o *OrderPlaced) error {
		fmt.Fprintf(out, "  audit: %s cancelled=%t\n", o.OrderID, o.IsCancelled())
		return nil
	}, event.WithName("audit"), event.WithIgnoreCancelled()); err != nil {
		return err
	}
	for _, o := range []*OrderPlaced{
		{BaseEvent: event.NewEvent("order.placed"), OrderID: "A-1", Total: 40},
		{BaseEvent: event.NewEvent("order.placed"), OrderID: "A-2", Total: 4000},
	} {
		if err := bus.Fire(ctx, o); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "== async chain ==")
	if _, err := event.SubscribeAsync(bus, 0, func(_ context.Context, j *ReindexJob, c *event.Controller) error {
		fmt.Fprintf(out, "  snapshot %s\n", j.Index)
		c.Proceed()
		return nil
	}, event.WithName("snapshot")); err != nil {
		return err
	}
	if _, err := event.SubscribeAsync(bus, 1, func(_ context.Context, j *ReindexJob, c *event.Controller) error {
		go func() {
			time.Sleep(10 * time.Millisecond)
			fmt.Fprintf(out, "  rebuilt %s\n", j.Index)
			c.Proceed()
		}()
		return nil
	}, event.WithName("rebuild")); err != nil {
		return err
	}
	if _, err := bus.FireAsync(ctx, &ReindexJob{Index: "products"}).Wait(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, "== registry ==")
	fmt.Fprint(out, bus.DebugAll())
	return nil
}
