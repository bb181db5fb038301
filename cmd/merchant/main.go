package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rcarvalho-pb/payment_request-go/internal/application/device"
	"github.com/rcarvalho-pb/payment_request-go/internal/application/lifecycle"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	domainDevice "github.com/rcarvalho-pb/payment_request-go/internal/domain/device"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/config"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/eventbus"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/orders"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/persistence/sqlite"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/status"
	"github.com/rcarvalho-pb/payment_request-go/internal/presentation/terminal"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	ordersURL := flag.String("orders-url", "", "order creation endpoint")
	statusURL := flag.String("status-url", "", "merchant status websocket base URL")
	deviceID := flag.String("device-id", "", "device identifier sent with every request")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if *ordersURL != "" {
		cfg.API.OrdersURL = *ordersURL
	}
	if *statusURL != "" {
		cfg.API.StatusURL = *statusURL
	}
	if *deviceID != "" {
		cfg.API.DeviceID = *deviceID
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// stdout belongs to the views
	logger := logging.NewKratosLogger(os.Stderr, cfg.Log.Level)
	counters := &metrics.Counters{}

	var (
		orderRepo  order.Repository
		deviceRepo domainDevice.Repository
	)
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		orderRepo = sqlite.NewOrderRepository(db)
		deviceRepo = sqlite.NewDeviceRepository(db)
	default:
		orderRepo = inmemory.NewOrderRepository()
		deviceRepo = inmemory.NewDeviceRepository()
	}

	resolver := &device.Resolver{
		Repo:   deviceRepo,
		Logger: logger,
	}
	id, err := resolver.Resolve(cfg.API.DeviceID)
	if err != nil {
		log.Fatal(err)
	}

	client := &orders.Client{
		OrdersURL:  cfg.API.OrdersURL,
		DeviceID:   id,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Logger:     logger,
	}

	subscriber := &status.Subscriber{
		BaseURL:  cfg.API.StatusURL,
		DeviceID: id,
		Backoff: status.Backoff{
			MaxRetry:  cfg.Subscription.Reconnect.MaxRetry,
			BaseDelay: cfg.Subscription.Reconnect.BaseDelay,
			MaxDelay:  cfg.Subscription.Reconnect.MaxDelay,
		},
		Logger: logger,
	}

	bus := eventbus.NewInMemoryBus()

	controller := &lifecycle.Controller{
		Submitter:  client,
		Subscriber: subscriber,
		Repo:       orderRepo,
		EventBus:   bus,
		Logger:     logger,
		Metrics:    counters,
		Catalog:    currency.Default,
	}

	app := terminal.NewApp(controller, currency.Default, os.Stdout, logger)
	bus.SubscribeAll(app.OnEvent)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	controllerDone := make(chan struct{})
	go func() {
		defer close(controllerDone)
		controller.Run(ctx)
	}()

	if err := app.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		logger.Error("terminal stopped", map[string]any{
			"error": err.Error(),
		})
	}

	// closes the status subscription; a live order stays stored for the next run
	stop()
	<-controllerDone

	stats := counters.Snapshot()
	logger.Info("session finished", map[string]any{
		"submitted":     stats.OrdersSubmitted,
		"created":       stats.OrdersCreated,
		"completed":     stats.PaymentsCompleted,
		"failed":        stats.SubmissionsFailed,
		"stale-dropped": stats.StaleResults,
		"subs-opened":   stats.SubscriptionsOpened,
		"subs-closed":   stats.SubscriptionsClosed,
	})
}
