package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcarvalho-pb/payment_request-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/metrics"
)

var (
	ErrStopped        = errors.New("lifecycle controller stopped")
	ErrAlreadyRunning = errors.New("lifecycle controller already running")
)

// Controller owns the single live payment order. Every state change runs on
// the goroutine executing Run; network calls run on helper goroutines and
// post their results back tagged with the generation they belong to, so a
// result for a discarded order is dropped on arrival.
type Controller struct {
	Submitter  contracts.OrderSubmitter
	Subscriber contracts.StatusSubscriber
	Repo       order.Repository
	EventBus   contracts.EventPublisher
	Logger     logging.Logger
	Metrics    *metrics.Counters
	Catalog    *currency.Catalog
	Now        func() time.Time

	initOnce sync.Once
	running  atomic.Bool
	inbox    chan func()
	stopped  chan struct{}

	// owned by the loop
	ctx        context.Context
	state      State
	current    *order.PaymentOrder
	sub        contracts.Subscription
	generation uint64
	lastErr    error
}

func (c *Controller) init() {
	c.initOnce.Do(func() {
		c.inbox = make(chan func())
		c.stopped = make(chan struct{})
		c.state = StateIdle
		if c.Logger == nil {
			c.Logger = logging.Nop{}
		}
		if c.Metrics == nil {
			c.Metrics = &metrics.Counters{}
		}
		if c.Catalog == nil {
			c.Catalog = currency.Default
		}
		if c.Now == nil {
			c.Now = time.Now
		}
	})
}

// Run processes lifecycle work until ctx is done. On exit the subscription is
// closed; a pending order stays stored so the next Run resumes it.
func (c *Controller) Run(ctx context.Context) error {
	c.init()
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.stopped)

	c.ctx = ctx
	c.restore()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case fn := <-c.inbox:
			fn()
		}
	}
}

// Submit validates the input and starts creating the order. Invalid input
// fails with *order.ValidationError and never reaches the backend. The
// outcome is announced with an OrderCreated or SubmissionFailed event.
func (c *Controller) Submit(ctx context.Context, amount string, code currency.Code, notes string) error {
	c.init()

	draft, err := order.NewDraftIn(c.Catalog, amount, code, notes)
	if err != nil {
		c.Logger.Info("order input rejected", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	var result error
	if err := c.call(ctx, func() { result = c.beginSubmission(draft) }); err != nil {
		return err
	}
	return result
}

// Abandon is the user leaving the share or QR view without completion.
func (c *Controller) Abandon(ctx context.Context) error {
	return c.call(ctx, func() { c.discard("abandoned") })
}

// StartNew discards the current order so a new request can be created.
func (c *Controller) StartNew(ctx context.Context) error {
	return c.call(ctx, func() { c.discard("new request") })
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.call(ctx, func() {
		snap = Snapshot{
			State:   c.state,
			Order:   c.current.Clone(),
			Err:     c.lastErr,
			Message: order.UserMessage(c.lastErr),
		}
	})
	return snap, err
}

func (c *Controller) beginSubmission(draft order.Draft) error {
	switch c.state {
	case StateCreating:
		return order.ErrSubmissionInFlight
	case StateAwaitingPayment, StateCompleted:
		return order.ErrOrderLive
	}

	c.generation++
	gen := c.generation
	c.state = StateCreating
	c.lastErr = nil
	c.Metrics.IncSubmitted()

	c.Logger.Info("submitting order", map[string]any{
		"amount":   draft.Amount,
		"currency": draft.Currency,
	})

	ctx := c.ctx
	go func() {
		created, err := c.Submitter.Create(ctx, draft)
		c.post(func() { c.finishSubmission(gen, draft, created, err) })
	}()

	return nil
}

func (c *Controller) finishSubmission(gen uint64, draft order.Draft, created order.Created, err error) {
	if !c.isCurrent(gen, StateCreating) {
		c.dropStale("submission result", gen)
		return
	}

	if err != nil {
		c.state = StateIdle
		c.lastErr = err
		c.Metrics.IncSubmissionFailed()
		c.Logger.Error("order submission failed", map[string]any{
			"error": err.Error(),
		})
		c.publish(event.Event{
			Type: event.SubmissionFailed,
			Payload: event.SubmissionFailedPayload{
				Err:     err,
				Message: order.UserMessage(err),
			},
		})
		return
	}

	o := order.NewPaymentOrder(draft, created, c.Now())
	if err := c.Repo.Save(o); err != nil {
		c.Logger.Error("failed to persist live order", map[string]any{
			"order-id": o.Identifier,
			"error":    err.Error(),
		})
	}
	c.current = o
	c.state = StateAwaitingPayment
	c.Metrics.IncCreated()

	c.publish(event.Event{
		Type: event.OrderCreated,
		Payload: event.OrderCreatedPayload{
			Identifier: o.Identifier,
			WebURL:     o.WebURL,
			Amount:     o.Amount,
			Currency:   o.Currency,
		},
	})

	c.openSubscription(gen, o.Identifier)
}

func (c *Controller) openSubscription(gen uint64, identifier string) {
	ctx := c.ctx
	go func() {
		sub, err := c.Subscriber.Open(ctx, identifier)
		posted := c.post(func() { c.attachSubscription(gen, identifier, sub, err) })
		if !posted && sub != nil {
			_ = sub.Close()
		}
	}()
}

func (c *Controller) attachSubscription(gen uint64, identifier string, sub contracts.Subscription, err error) {
	if err != nil {
		c.Logger.Error("status subscription failed", map[string]any{
			"order-id": identifier,
			"error":    err.Error(),
		})
		return
	}

	if !c.isCurrent(gen, StateAwaitingPayment) {
		_ = sub.Close()
		c.dropStale("subscription", gen)
		return
	}

	c.sub = sub
	c.Metrics.IncSubscriptionOpened()
	go c.forward(gen, sub)
}

func (c *Controller) forward(gen uint64, sub contracts.Subscription) {
	for comp := range sub.Completed() {
		if !c.post(func() { c.complete(gen, comp) }) {
			return
		}
	}
}

func (c *Controller) complete(gen uint64, comp order.Completion) {
	if !c.isCurrent(gen, StateAwaitingPayment) {
		c.dropStale("completion", gen)
		return
	}

	c.closeSubscription()
	c.current.Complete(comp)
	if err := c.Repo.Save(c.current); err != nil {
		c.Logger.Error("failed to persist completed order", map[string]any{
			"order-id": c.current.Identifier,
			"error":    err.Error(),
		})
	}
	c.state = StateCompleted
	c.Metrics.IncCompleted()

	settled := c.current.Settled()
	c.Logger.Info("order completed", map[string]any{
		"order-id": c.current.Identifier,
		"amount":   settled.Amount,
		"currency": settled.Currency,
	})
	c.publish(event.Event{
		Type: event.PaymentCompleted,
		Payload: event.PaymentCompletedPayload{
			Identifier: c.current.Identifier,
			Amount:     settled.Amount,
			Currency:   settled.Currency,
		},
	})
}

func (c *Controller) discard(reason string) {
	if c.state == StateIdle {
		return
	}

	// Anything still in flight for the old generation is dropped on arrival.
	c.generation++
	c.closeSubscription()

	var identifier string
	if c.current != nil {
		identifier = c.current.Identifier
		if err := c.Repo.Delete(identifier); err != nil && !errors.Is(err, order.ErrOrderNotFound) {
			c.Logger.Error("failed to delete live order", map[string]any{
				"order-id": identifier,
				"error":    err.Error(),
			})
		}
	}

	c.Logger.Info("order discarded", map[string]any{
		"order-id": identifier,
		"state":    c.state,
		"reason":   reason,
	})

	c.current = nil
	c.state = StateIdle
	c.lastErr = nil

	c.publish(event.Event{
		Type:    event.OrderDiscarded,
		Payload: event.OrderDiscardedPayload{Identifier: identifier},
	})
}

func (c *Controller) restore() {
	o, err := c.Repo.Current()
	if err != nil {
		if !errors.Is(err, order.ErrOrderNotFound) {
			c.Logger.Error("failed to load live order", map[string]any{
				"error": err.Error(),
			})
		}
		return
	}

	c.generation++
	c.current = o
	c.Logger.Info("live order restored", map[string]any{
		"order-id": o.Identifier,
		"status":   o.Status,
	})

	if o.Status == order.StatusCompleted {
		c.state = StateCompleted
		settled := o.Settled()
		c.publish(event.Event{
			Type: event.PaymentCompleted,
			Payload: event.PaymentCompletedPayload{
				Identifier: o.Identifier,
				Amount:     settled.Amount,
				Currency:   settled.Currency,
			},
		})
		return
	}

	c.state = StateAwaitingPayment
	c.publish(event.Event{
		Type: event.OrderCreated,
		Payload: event.OrderCreatedPayload{
			Identifier: o.Identifier,
			WebURL:     o.WebURL,
			Amount:     o.Amount,
			Currency:   o.Currency,
		},
	})
	c.openSubscription(c.generation, o.Identifier)
}

func (c *Controller) shutdown() {
	c.generation++
	c.closeSubscription()
	c.Logger.Info("lifecycle controller stopped", map[string]any{
		"state": c.state,
	})
}

func (c *Controller) closeSubscription() {
	if c.sub == nil {
		return
	}

	if err := c.sub.Close(); err != nil {
		c.Logger.Error("failed to close status subscription", map[string]any{
			"error": err.Error(),
		})
	}
	c.sub = nil
	c.Metrics.IncSubscriptionClosed()
}

func (c *Controller) isCurrent(gen uint64, want State) bool {
	return gen == c.generation && c.state == want
}

func (c *Controller) dropStale(what string, gen uint64) {
	c.Metrics.IncStale()
	c.Logger.Info("dropping stale "+what, map[string]any{
		"generation": gen,
		"current":    c.generation,
		"state":      c.state,
	})
}

func (c *Controller) publish(evt event.Event) {
	if c.EventBus == nil {
		return
	}
	if err := c.EventBus.Publish(evt); err != nil {
		c.Logger.Error("failed to publish lifecycle event", map[string]any{
			"type":  evt.Type,
			"error": err.Error(),
		})
	}
}

// call runs fn on the loop and waits for it.
func (c *Controller) call(ctx context.Context, fn func()) error {
	c.init()

	done := make(chan struct{})
	task := func() {
		fn()
		close(done)
	}

	select {
	case c.inbox <- task:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}

// post hands fn to the loop. It reports false once the loop has stopped.
func (c *Controller) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.stopped:
		return false
	}
}
