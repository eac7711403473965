package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/provence-bookings/internal/catalog"
	"github.com/diagnosis/provence-bookings/internal/platform/payments"
	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/pkg/config"
	"github.com/diagnosis/provence-bookings/pkg/database"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	mw "github.com/diagnosis/provence-bookings/pkg/middleware"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/handlers"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/repository"
	"github.com/diagnosis/provence-bookings/services/bookings/internal/service"
)

func main() {
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "bookings")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Redis backs the rate limiter only
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		logger.Error("Failed to load catalog", "error", err, "path", cfg.Catalog.Path)
		os.Exit(1)
	}

	stripeGateway := payments.NewStripeGateway(cfg.Stripe.SecretKey)
	if !stripeGateway.Enabled() {
		logger.Warn("Stripe is not configured; bookings stay pending until payment.captured")
	}

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	customRequestRepo := repository.NewCustomRequestRepository(pool)

	// Initialize services
	engine := pricing.NewEngine(cfg.Pricing.Policy(), cat)
	loc, err := cfg.Catalog.Location()
	if err != nil {
		logger.Warn("Unknown BUSINESS_TIMEZONE, using the local zone", "timezone", cfg.Catalog.Timezone, "error", err)
		loc = time.Local
	}
	bookingService := service.NewBookingService(bookingRepo, idempotencyRepo, cat, engine, stripeGateway, eventBus, loc)
	experienceService := service.NewExperienceService(cat)
	reviewService := service.NewReviewService(reviewRepo)
	inquiryService := service.NewInquiryService(customRequestRepo, eventBus)

	if err := eventBus.QueueSubscribe(events.PaymentCaptured, "bookings", bookingService.HandlePaymentCaptured); err != nil {
		logger.Error("Failed to subscribe to payment events", "error", err)
		os.Exit(1)
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go cleanupIdempotency(cleanupCtx, idempotencyRepo)

	// Initialize handlers
	h := handlers.New(bookingService, experienceService, reviewService, inquiryService)
	limiter := mw.NewRateLimiter(rdb, mw.RateLimitConfig{
		Requests: cfg.Redis.RateLimit,
		Window:   cfg.Redis.RateWindow,
		Prefix:   "ratelimit:bookings",
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("bookings"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health(map[string]mw.HealthCheck{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}))

	h.Mount(r, limiter.Middleware())

	// Start server
	srv := &http.Server{
		Addr:         ":" + getPort("8082"),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down bookings service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Bookings service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting bookings service", "addr", srv.Addr, "experiences", len(cat.Experiences))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Bookings service error", "error", err)
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// cleanupIdempotency drops expired idempotency keys once an hour.
func cleanupIdempotency(ctx context.Context, repo repository.IdempotencyRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("Failed to clean up idempotency keys", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Cleaned up idempotency keys", "deleted", n)
			}
		}
	}
}

func getPort(fallback string) string {
	if port := os.Getenv("BOOKINGS_PORT"); port != "" {
		return port
	}
	return fallback
}
