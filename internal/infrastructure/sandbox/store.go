package sandbox

import (
	"errors"
	"sync"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
)

var (
	ErrUnknownOrder = errors.New("unknown order")
	ErrAlreadyPaid  = errors.New("order already paid")
)

// Order is the backend's view of a payment request.
type Order struct {
	Identifier string        `json:"identifier"`
	DeviceID   string        `json:"device_id"`
	Amount     string        `json:"expected_output_amount"`
	Currency   currency.Code `json:"fiat"`
	Notes      string        `json:"notes"`
	WebURL     string        `json:"web_url"`
	Paid       bool          `json:"paid"`
}

type Store struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewStore() *Store {
	return &Store{orders: make(map[string]Order)}
}

func (s *Store) Add(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.Identifier] = o
}

func (s *Store) Get(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	return o, nil
}

func (s *Store) MarkPaid(id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	if o.Paid {
		return o, ErrAlreadyPaid
	}
	o.Paid = true
	s.orders[id] = o
	return o, nil
}
