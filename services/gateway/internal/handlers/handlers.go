package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/diagnosis/provence-bookings/internal/http/response"
	"github.com/diagnosis/provence-bookings/pkg/logger"
	mw "github.com/diagnosis/provence-bookings/pkg/middleware"
	"github.com/diagnosis/provence-bookings/services/gateway/internal/proxy"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	bookingsProxy *proxy.ServiceProxy
	paymentsProxy *proxy.ServiceProxy
}

func New(bookingsProxy, paymentsProxy *proxy.ServiceProxy) *Handlers {
	return &Handlers{
		bookingsProxy: bookingsProxy,
		paymentsProxy: paymentsProxy,
	}
}

// Router builds the public entry point. Payment routes go to the payments
// service; everything else under /api goes to bookings.
func (h *Handlers) Router(allowedOrigins []string, checks map[string]mw.HealthCheck) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gateway"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.Health(checks))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stripe-config", h.Forward(h.paymentsProxy))
		r.Post("/create-payment-intent", h.Forward(h.paymentsProxy))
		r.Post("/stripe/webhook", h.Forward(h.paymentsProxy))

		r.HandleFunc("/*", h.Forward(h.bookingsProxy))
	})

	return r
}

// Forward relays the request unchanged to the target service. The client IP
// travels in X-Forwarded-For so per-IP rate limits still apply downstream.
func (h *Handlers) Forward(target *proxy.ServiceProxy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			response.BadRequest(w, "Failed to read request body")
			return
		}
		defer r.Body.Close()

		header := r.Header.Clone()
		header.Set("X-Forwarded-For", mw.ClientIP(r))

		resp, err := target.ProxyRequest(r.Context(), r.Method, r.URL.RequestURI(), body, header)
		if err != nil {
			logger.ErrorContext(r.Context(), "Service proxy error", "error", err, "service", target.Name(), "path", r.URL.Path)
			response.ServiceUnavailable(w, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		proxy.CopyHeaders(w.Header(), resp.Header)
		w.WriteHeader(resp.StatusCode)

		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.ErrorContext(r.Context(), "Failed to copy response body", "error", err)
		}
	}
}
