package event

import "github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"

// OrderCreatedPayload moves the merchant from the create view to the share view.
type OrderCreatedPayload struct {
	Identifier string
	WebURL     string
	Amount     string
	Currency   currency.Code
}

type SubmissionFailedPayload struct {
	Err     error
	Message string
}

// PaymentCompletedPayload carries the server-confirmed values.
type PaymentCompletedPayload struct {
	Identifier string
	Amount     string
	Currency   currency.Code
}

type OrderDiscardedPayload struct {
	Identifier string
}
