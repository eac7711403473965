package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/provence-bookings/internal/platform/mailer"
	"github.com/diagnosis/provence-bookings/pkg/config"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	mw "github.com/diagnosis/provence-bookings/pkg/middleware"
	"github.com/diagnosis/provence-bookings/services/notify/internal/notifier"
)

func main() {
	cfg := config.Load()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "notify")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	n, err := notifier.New(mailer.New(cfg.Email), cfg.Email.BusinessEmail, cfg.Email.BusinessName)
	if err != nil {
		logger.Error("Failed to load email templates", "error", err)
		os.Exit(1)
	}

	// Queue groups let several notify instances share the work.
	if err := eventBus.QueueSubscribe(events.BookingCreated, "notify", n.HandleBookingCreated); err != nil {
		logger.Error("Failed to subscribe", "subject", events.BookingCreated, "error", err)
		os.Exit(1)
	}
	if err := eventBus.QueueSubscribe(events.CustomRequestCreated, "notify", n.HandleCustomRequestCreated); err != nil {
		logger.Error("Failed to subscribe", "subject", events.CustomRequestCreated, "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Recover)
	r.Use(mw.Health(nil))

	srv := &http.Server{
		Addr:         ":" + getPort("8086"),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down notify service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Notify service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting notify service", "addr", srv.Addr, "dev_mode", cfg.Email.DevMode)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
}

func getPort(fallback string) string {
	if port := os.Getenv("NOTIFY_PORT"); port != "" {
		return port
	}
	return fallback
}
