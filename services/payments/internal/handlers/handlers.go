package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/provence-bookings/internal/http/response"
	"github.com/diagnosis/provence-bookings/internal/platform/payments"
	"github.com/diagnosis/provence-bookings/internal/utils"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/pkg/logger"
)

const maxWebhookBytes = 64 << 10

// IntentCreator is the part of the Stripe gateway the handlers need.
type IntentCreator interface {
	Enabled() bool
	CreateDepositIntent(ctx context.Context, amount int64, metadata map[string]string) (*payments.Intent, error)
}

type Config struct {
	PublishableKey string
	WebhookSecret  string
	DepositCents   int64
}

type Handlers struct {
	gateway   IntentCreator
	publisher events.Publisher
	cfg       Config
}

func New(gateway IntentCreator, publisher events.Publisher, cfg Config) *Handlers {
	return &Handlers{gateway: gateway, publisher: publisher, cfg: cfg}
}

func (h *Handlers) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/stripe-config", h.StripeConfig)
		r.Post("/create-payment-intent", h.CreatePaymentIntent)
		r.Post("/stripe/webhook", h.StripeWebhook)
	})
}

func (h *Handlers) StripeConfig(w http.ResponseWriter, r *http.Request) {
	if h.cfg.PublishableKey == "" {
		response.ServiceUnavailable(w, "Online payments are not available")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"publishableKey": h.cfg.PublishableKey})
}

type intentRequest struct {
	ExperienceID  string `json:"experience_id"`
	CustomerEmail string `json:"customer_email"`
}

// CreatePaymentIntent always charges the configured deposit; any amount the
// client sends is ignored.
func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	if !h.gateway.Enabled() {
		response.ServiceUnavailable(w, "Online payments are not available")
		return
	}

	var req intentRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid JSON format")
			return
		}
	}

	metadata := map[string]string{"purpose": "deposit"}
	if id := strings.TrimSpace(req.ExperienceID); id != "" {
		metadata["experience_id"] = id
	}
	if email := utils.NormalizeEmail(req.CustomerEmail); email != "" {
		metadata["customer_email"] = email
	}

	intent, err := h.gateway.CreateDepositIntent(r.Context(), h.cfg.DepositCents, metadata)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create payment intent", "error", err)
		response.WriteError(w, http.StatusBadGateway, "Could not start the payment, please try again", response.CodeUnavailable)
		return
	}

	logger.InfoContext(r.Context(), "Payment intent created", "payment_intent_id", intent.ID, "amount", intent.Amount)
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
		"amount":          intent.Amount,
	})
}

// StripeWebhook publishes payment.captured for succeeded intents. A failed
// publish answers 500 so Stripe retries the delivery.
func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		response.BadRequest(w, "Could not read body")
		return
	}

	evt, err := payments.ParseWebhook(payload, r.Header.Get("Stripe-Signature"), h.cfg.WebhookSecret)
	switch {
	case errors.Is(err, payments.ErrNotConfigured):
		response.ServiceUnavailable(w, "Webhooks are not configured")
		return
	case err != nil:
		logger.WarnContext(r.Context(), "Rejected webhook", "error", err)
		response.BadRequest(w, "Invalid webhook")
		return
	}

	if evt.Type == payments.EventPaymentSucceeded && evt.Intent != nil {
		captured := events.PaymentCapturedEvent{
			PaymentIntentID: evt.Intent.ID,
			Amount:          evt.Intent.Amount,
			Currency:        evt.Intent.Currency,
			CapturedAt:      time.Now().UTC(),
		}
		if err := h.publisher.Publish(r.Context(), events.PaymentCaptured, captured); err != nil {
			logger.ErrorContext(r.Context(), "Failed to publish payment captured", "error", err, "payment_intent_id", evt.Intent.ID)
			response.InternalError(w, "Could not record payment")
			return
		}
		logger.InfoContext(r.Context(), "Payment captured", "payment_intent_id", evt.Intent.ID, "amount", evt.Intent.Amount)
	}

	response.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
