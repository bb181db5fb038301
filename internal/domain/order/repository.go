package order

// Repository holds the single live order of the session.
type Repository interface {
	Save(*PaymentOrder) error
	Current() (*PaymentOrder, error)
	Delete(identifier string) error
}
