package device

import "errors"

var ErrDeviceNotFound = errors.New("device identifier not found")

// Repository stores the identifier this install sends as X-Device-Id.
type Repository interface {
	Get() (string, error)
	Save(id string) error
}
