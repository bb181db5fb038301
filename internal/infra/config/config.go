package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOrdersURL = "https://payments.pre-bnvo.com/api/v1/orders/"
	DefaultStatusURL = "wss://payments.pre-bnvo.com/ws/merchant/"
)

type Bootstrap struct {
	API          API          `yaml:"api"`
	Subscription Subscription `yaml:"subscription"`
	Storage      Storage      `yaml:"storage"`
	Log          Log          `yaml:"log"`
	Sandbox      Sandbox      `yaml:"sandbox"`
}

type API struct {
	OrdersURL string `yaml:"orders_url"`
	StatusURL string `yaml:"status_url"`
	DeviceID  string `yaml:"device_id"`
	// Timeout bounds the order creation call. Zero waits forever.
	Timeout time.Duration `yaml:"timeout"`
}

type Subscription struct {
	Reconnect Reconnect `yaml:"reconnect"`
}

// Reconnect is disabled while MaxRetry is zero.
type Reconnect struct {
	MaxRetry  int           `yaml:"max_retry"`
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Sandbox struct {
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"public_url"`
	// CompletionStatus is the sentinel pushed on payment: "CO" or "completed".
	CompletionStatus string `yaml:"completion_status"`
}

func Default() *Bootstrap {
	return &Bootstrap{
		API: API{
			OrdersURL: DefaultOrdersURL,
			StatusURL: DefaultStatusURL,
		},
		Subscription: Subscription{
			Reconnect: Reconnect{
				BaseDelay: time.Second,
				MaxDelay:  30 * time.Second,
			},
		},
		Storage: Storage{Driver: "memory", Path: "merchant.db"},
		Log:     Log{Level: "info"},
		Sandbox: Sandbox{
			Addr:             ":8080",
			PublicURL:        "http://localhost:8080",
			CompletionStatus: "CO",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Bootstrap, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return c, nil
}

// ApplyEnv overrides endpoints and the device id from MERCHANT_* variables.
func (b *Bootstrap) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("MERCHANT_ORDERS_URL"); ok && v != "" {
		b.API.OrdersURL = v
	}
	if v, ok := lookup("MERCHANT_STATUS_URL"); ok && v != "" {
		b.API.StatusURL = v
	}
	if v, ok := lookup("MERCHANT_DEVICE_ID"); ok && v != "" {
		b.API.DeviceID = v
	}
}

func (b *Bootstrap) Validate() error {
	if err := validateURL("api.orders_url", b.API.OrdersURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("api.status_url", b.API.StatusURL, "ws", "wss"); err != nil {
		return err
	}
	if b.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	r := b.Subscription.Reconnect
	if r.MaxRetry < 0 {
		return fmt.Errorf("subscription.reconnect.max_retry must not be negative")
	}
	if r.MaxRetry > 0 && (r.BaseDelay <= 0 || r.MaxDelay < r.BaseDelay) {
		return fmt.Errorf("subscription.reconnect delays must satisfy 0 < base_delay <= max_delay")
	}

	switch b.Storage.Driver {
	case "memory":
	case "sqlite":
		if b.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", b.Storage.Driver)
	}

	switch b.Sandbox.CompletionStatus {
	case "CO", "completed":
	default:
		return fmt.Errorf("sandbox.completion_status must be CO or completed")
	}

	return nil
}

func validateURL(key, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be an absolute %s URL", key, strings.Join(schemes, "/"))
}
