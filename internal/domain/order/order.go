package order

import (
	"time"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Created is what the backend hands back for a new order.
type Created struct {
	Identifier string
	WebURL     string
}

// Completion carries the server-confirmed amount and currency of a paid order.
type Completion struct {
	Amount   string
	Currency currency.Code
}

type PaymentOrder struct {
	Identifier    string
	WebURL        string
	Amount        string
	Currency      currency.Code
	Notes         string
	Status        Status
	FinalAmount   string
	FinalCurrency currency.Code
	CreatedAt     time.Time
}

func NewPaymentOrder(d Draft, c Created, now time.Time) *PaymentOrder {
	return &PaymentOrder{
		Identifier: c.Identifier,
		WebURL:     c.WebURL,
		Amount:     d.Amount,
		Currency:   d.Currency,
		Notes:      d.Notes,
		Status:     StatusPending,
		CreatedAt:  now,
	}
}

// Complete flips a pending order to completed. It reports false, leaving
// the order untouched, when the order was already completed.
func (o *PaymentOrder) Complete(c Completion) bool {
	if o.Status != StatusPending {
		return false
	}

	o.Status = StatusCompleted
	o.FinalAmount = c.Amount
	if o.FinalAmount == "" {
		o.FinalAmount = o.Amount
	}
	o.FinalCurrency = c.Currency
	if o.FinalCurrency == "" {
		o.FinalCurrency = o.Currency
	}
	return true
}

// Settled returns the amount and currency to show on the completed view.
func (o *PaymentOrder) Settled() Completion {
	if o.Status != StatusCompleted {
		return Completion{Amount: o.Amount, Currency: o.Currency}
	}
	return Completion{Amount: o.FinalAmount, Currency: o.FinalCurrency}
}

func (o *PaymentOrder) Clone() *PaymentOrder {
	if o == nil {
		return nil
	}
	cp := *o
	return &cp
}
