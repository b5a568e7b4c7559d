package bot

import (
	"context"
	"log"

	"trustline/backend/internal/config"
	"trustline/backend/internal/models"

	"golang.org/x/sync/errgroup"
)

// Handler consumes one normalized event.
type Handler interface {
	Handle(ctx context.Context, ev models.Event)
}

// Locker serializes work per user. Lock returns the release func.
type Locker interface {
	Lock(ctx context.Context, userID string) (func(), error)
}

// Dispatcher feeds events from every transport into a pool of workers. Events of
// one sender are serialized through the Locker when it is reachable.
type Dispatcher struct {
	handler Handler
	locker  Locker
	workers int
	queue   chan models.Event
}

// NewDispatcher creates a dispatcher. locker may be nil, in which case events are never serialized.
func NewDispatcher(h Handler, locker Locker, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		handler: h,
		locker:  locker,
		workers: workers,
		queue:   make(chan models.Event, queueSize),
	}
}

// Dispatch queues an event. It blocks while the queue is full.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event) error {
	select {
	case d.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case ev := <-d.queue:
					d.process(gctx, ev)
				}
			}
		})
	}
	log.Printf("INFO: Dispatcher started with %d workers", d.workers)
	return g.Wait()
}

func (d *Dispatcher) process(ctx context.Context, ev models.Event) {
	// обробка не повинна пережити TTL блокування
	ctx, cancel := context.WithTimeout(ctx, config.UserLockTTL)
	defer cancel()

	if d.locker != nil {
		release, err := d.locker.Lock(ctx, ev.SenderID)
		if err != nil {
			log.Printf("WARN: handling event of %s without user lock: %v", ev.SenderID, err)
		} else {
			defer release()
		}
	}
	d.handler.Handle(ctx, ev)
}
