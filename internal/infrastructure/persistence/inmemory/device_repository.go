package inmemory

import (
	"sync"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/device"
)

type DeviceRepository struct {
	mu sync.RWMutex
	id string
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{}
}

func (r *DeviceRepository) Get() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.id == "" {
		return "", device.ErrDeviceNotFound
	}
	return r.id, nil
}

func (r *DeviceRepository) Save(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.id = id
	return nil
}
