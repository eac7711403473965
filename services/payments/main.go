package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/provence-bookings/internal/platform/payments"
	"github.com/diagnosis/provence-bookings/pkg/config"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	mw "github.com/diagnosis/provence-bookings/pkg/middleware"
	"github.com/diagnosis/provence-bookings/services/payments/internal/handlers"
)

func main() {
	cfg := config.Load()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "payments")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey)
	if !gateway.Enabled() {
		logger.Warn("STRIPE_SECRET_KEY not set; payment intents are disabled")
	}

	h := handlers.New(gateway, eventBus, handlers.Config{
		PublishableKey: cfg.Stripe.PublishableKey,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		DepositCents:   cfg.Pricing.DepositCents,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("payments"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health(nil))

	h.Mount(r)

	srv := &http.Server{
		Addr:         ":" + getPort("8083"),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down payments service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Payments service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting payments service", "addr", srv.Addr, "stripe_env", cfg.Stripe.Environment)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Payments service error", "error", err)
		os.Exit(1)
	}
}

func getPort(fallback string) string {
	if port := os.Getenv("PAYMENTS_PORT"); port != "" {
		return port
	}
	return fallback
}
