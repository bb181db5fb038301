package sqlite

import (
	"database/sql"
	"errors"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/device"
)

type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Get() (string, error) {
	var id string
	err := r.db.QueryRow(`SELECT device_id FROM device WHERE slot = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", device.ErrDeviceNotFound
	}
	return id, err
}

func (r *DeviceRepository) Save(id string) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO device (slot, device_id) VALUES (1, ?)`,
		id,
	)
	return err
}
