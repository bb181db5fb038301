package eventbus

import (
	"errors"
	"sync"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/event"
)

type HandlerFunc func(event.Event) error

// InMemoryBus delivers events synchronously on the publisher's goroutine.
// Handlers must not block; the lifecycle controller publishes from its loop.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerFunc
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[event.Type][]HandlerFunc),
	}
}

func (b *InMemoryBus) Subscribe(eventType event.Type, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers handler for every navigation event type.
func (b *InMemoryBus) SubscribeAll(handler HandlerFunc) {
	for _, t := range []event.Type{
		event.OrderCreated,
		event.SubmissionFailed,
		event.PaymentCompleted,
		event.OrderDiscarded,
	} {
		b.Subscribe(t, handler)
	}
}

// Publish runs every handler even when one fails and joins their errors.
func (b *InMemoryBus) Publish(evt event.Event) error {
	b.mu.RLock()
	handlers := b.handlers[evt.Type]
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(evt); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
