package device

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	domainDevice "github.com/rcarvalho-pb/payment_request-go/internal/domain/device"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
)

// Resolver settles the static device identifier sent with every request.
// A configured id wins; otherwise the stored one is reused, and a fresh
// UUID is generated and stored on first run.
type Resolver struct {
	Repo      domainDevice.Repository
	Logger    logging.Logger
	Generator func() string
}

func (r *Resolver) Resolve(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	id, err := r.Repo.Get()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domainDevice.ErrDeviceNotFound) {
		return "", fmt.Errorf("load device id: %w", err)
	}

	id = r.generate()
	if err := r.Repo.Save(id); err != nil {
		return "", fmt.Errorf("save device id: %w", err)
	}

	r.Logger.Info("device id generated", map[string]any{"device-id": id})
	return id, nil
}

func (r *Resolver) generate() string {
	if r.Generator != nil {
		return r.Generator()
	}
	return uuid.NewString()
}
