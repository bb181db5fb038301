package lifecycle

import "github.com/rcarvalho-pb/payment_request-go/internal/domain/order"

type State string

const (
	StateIdle            State = "IDLE"
	StateCreating        State = "CREATING"
	StateAwaitingPayment State = "AWAITING_PAYMENT"
	StateCompleted       State = "COMPLETED"
)

// Snapshot is a read-only copy of the controller state for views.
type Snapshot struct {
	State State
	Order *order.PaymentOrder
	// Err is the last submission failure, cleared by the next submit.
	Err     error
	Message string
}
