package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrOrderLive          = errors.New("a payment order is already live")
)

const (
	MessageTransport = "Could not reach the payment service. Check your connection and try again."
	MessageGeneric   = "An error occurred while creating the payment."
)

// ValidationError is bad local input. It never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ServerError is a backend rejection; Message is meant for the user as is.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected order (%d): %s", e.StatusCode, e.Message)
}

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a response whose shape the client does not understand.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// UserMessage maps a submission error to the text shown to the merchant.
func UserMessage(err error) string {
	var (
		validationErr *ValidationError
		serverErr     *ServerError
		transportErr  *TransportError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return "Check the payment details: " + validationErr.Error() + "."
	case errors.As(err, &serverErr):
		return serverErr.Message
	case errors.As(err, &transportErr):
		return MessageTransport
	default:
		return MessageGeneric
	}
}
