package event

type Type string

const (
	OrderCreated     Type = "ORDER_CREATED"
	SubmissionFailed Type = "SUBMISSION_FAILED"
	PaymentCompleted Type = "PAYMENT_COMPLETED"
	OrderDiscarded   Type = "ORDER_DISCARDED"
)

type Event struct {
	Type    Type
	Payload any
}
