package contracts

import (
	"context"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
)

type EventPublisher interface {
	Publish(event.Event) error
}

// OrderSubmitter creates orders on the backend. Drafts are already validated.
type OrderSubmitter interface {
	Create(ctx context.Context, draft order.Draft) (order.Created, error)
}

type StatusSubscriber interface {
	Open(ctx context.Context, identifier string) (Subscription, error)
}

// Subscription is a live status connection for one order. Completed yields
// at most one value and is closed when the connection ends. Close is
// idempotent.
type Subscription interface {
	Completed() <-chan order.Completion
	Close() error
}
