package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler handles a published audit record.
type Handler func(context.Context, Record) error

// Dispatcher interface allows record publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, record Record) error
	Subscribe(action Action, handler Handler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[Action][]Handler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[Action][]Handler),
	}
}

// Publish synchronously invokes handlers for the record's action. A failing handler
// does not stop the others; the first error is returned.
func (d *inMemoryDispatcher) Publish(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	d.mu.RLock()
	handlers := append([]Handler{}, d.listeners[record.Action]...)
	d.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe registers a handler for the given action.
func (d *inMemoryDispatcher) Subscribe(action Action, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[action] = append(d.listeners[action], handler)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Publish(context.Context, Record) error { return nil }
func (Nop) Subscribe(Action, Handler)             {}
