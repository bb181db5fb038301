package inmemory

import (
	"sync"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
)

// OrderRepository keeps the single live order in memory.
type OrderRepository struct {
	mu      sync.RWMutex
	current *order.PaymentOrder
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) Save(o *order.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = o.Clone()
	return nil
}

func (r *OrderRepository) Current() (*order.PaymentOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return nil, order.ErrOrderNotFound
	}
	return r.current.Clone(), nil
}

func (r *OrderRepository) Delete(identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.Identifier != identifier {
		return order.ErrOrderNotFound
	}
	r.current = nil
	return nil
}
