package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler reacts to one tenancy event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans tenancy events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// HandlerError reports a subscriber that failed or panicked.
type HandlerError struct {
	EventType EventType
	EventID   string
	Index     int
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler #%d for event %q: %v", e.EventType, e.Index, e.EventID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// ErrHandlerPanic marks a subscriber that panicked instead of returning.
var ErrHandlerPanic = errors.New("event handler panicked")

type syncDispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a dispatcher that runs subscribers inline, in
// subscription order, on the publishing goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{handlers: make(map[EventType][]EventHandler)}
}

// Publish runs every subscriber of event.Type even when earlier ones fail.
// Failures come back joined, one HandlerError each. The tenancy change has
// already committed by the time this runs, so nothing here is retried.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subscribers := d.handlers[event.Type]
	d.mu.RUnlock()

	var failures []error
	for i, handle := range subscribers {
		if err := invoke(ctx, handle, event); err != nil {
			failures = append(failures, &HandlerError{EventType: event.Type, EventID: event.ID, Index: i, Err: err})
		}
	}
	return errors.Join(failures...)
}

func invoke(ctx context.Context, handle EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return handle(ctx, event)
}

// Subscribe appends handler to the subscribers of eventType. Nil handlers are ignored.
func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// Copy on write so a Publish holding the old slice never sees a partial append.
	next := make([]EventHandler, 0, len(d.handlers[eventType])+1)
	next = append(next, d.handlers[eventType]...)
	d.handlers[eventType] = append(next, handler)
}
