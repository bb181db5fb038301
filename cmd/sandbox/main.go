package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/config"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/sandbox"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.Sandbox.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := logging.NewKratosLogger(os.Stdout, cfg.Log.Level)

	handler := &sandbox.Handler{
		Store:            sandbox.NewStore(),
		Hub:              sandbox.NewHub(),
		Catalog:          currency.Default,
		Logger:           logger,
		PublicURL:        cfg.Sandbox.PublicURL,
		CompletionStatus: cfg.Sandbox.CompletionStatus,
	}

	srv := &http.Server{
		Addr:              cfg.Sandbox.Addr,
		Handler:           sandbox.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("sandbox backend running", map[string]any{
		"addr":       cfg.Sandbox.Addr,
		"public-url": cfg.Sandbox.PublicURL,
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
