package metrics

import "sync/atomic"

type Counters struct {
	OrdersSubmitted     uint64
	SubmissionsFailed   uint64
	OrdersCreated       uint64
	PaymentsCompleted   uint64
	SubscriptionsOpened uint64
	SubscriptionsClosed uint64
	StaleResults        uint64
}

func (c *Counters) IncSubmitted() {
	atomic.AddUint64(&c.OrdersSubmitted, 1)
}

func (c *Counters) IncSubmissionFailed() {
	atomic.AddUint64(&c.SubmissionsFailed, 1)
}

func (c *Counters) IncCreated() {
	atomic.AddUint64(&c.OrdersCreated, 1)
}

func (c *Counters) IncCompleted() {
	atomic.AddUint64(&c.PaymentsCompleted, 1)
}

func (c *Counters) IncSubscriptionOpened() {
	atomic.AddUint64(&c.SubscriptionsOpened, 1)
}

func (c *Counters) IncSubscriptionClosed() {
	atomic.AddUint64(&c.SubscriptionsClosed, 1)
}

// IncStale counts async results dropped because their order was no longer current.
func (c *Counters) IncStale() {
	atomic.AddUint64(&c.StaleResults, 1)
}

// Snapshot returns a consistent-enough copy for display.
func (c *Counters) Snapshot() Counters {
	return Counters{
		OrdersSubmitted:     atomic.LoadUint64(&c.OrdersSubmitted),
		SubmissionsFailed:   atomic.LoadUint64(&c.SubmissionsFailed),
		OrdersCreated:       atomic.LoadUint64(&c.OrdersCreated),
		PaymentsCompleted:   atomic.LoadUint64(&c.PaymentsCompleted),
		SubscriptionsOpened: atomic.LoadUint64(&c.SubscriptionsOpened),
		SubscriptionsClosed: atomic.LoadUint64(&c.SubscriptionsClosed),
		StaleResults:        atomic.LoadUint64(&c.StaleResults),
	}
}
