package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/provence-bookings/pkg/config"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	mw "github.com/diagnosis/provence-bookings/pkg/middleware"
	"github.com/diagnosis/provence-bookings/services/gateway/internal/handlers"
	"github.com/diagnosis/provence-bookings/services/gateway/internal/proxy"
)

func main() {
	cfg := config.Load()

	// Use localhost for development, service names in compose
	bookingsProxy := proxy.NewServiceProxy("bookings", cfg.Services.BookingsURL)
	paymentsProxy := proxy.NewServiceProxy("payments", cfg.Services.PaymentsURL)

	h := handlers.New(bookingsProxy, paymentsProxy)
	router := h.Router(cfg.Server.AllowedOrigins, map[string]mw.HealthCheck{
		"bookings": upstreamHealth(cfg.Services.BookingsURL),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gateway service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Gateway shutdown error", "error", err)
		}
	}()

	logger.Info("Starting gateway service",
		"port", cfg.Server.Port,
		"bookings", cfg.Services.BookingsURL,
		"payments", cfg.Services.PaymentsURL,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Gateway server error", "error", err)
		os.Exit(1)
	}
}

func upstreamHealth(baseURL string) mw.HealthCheck {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
}
