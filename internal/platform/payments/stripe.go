package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrNotConfigured    = errors.New("payments not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

const EventPaymentSucceeded = "payment_intent.succeeded"

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
	Metadata     map[string]string
}

func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == string(stripe.PaymentIntentStatusSucceeded)
}

type WebhookEvent struct {
	ID     string
	Type   string
	Intent *Intent // set for payment_intent.* events
}

type StripeGateway struct {
	api      *client.API
	currency string
}

func NewStripeGateway(secretKey string) *StripeGateway {
	g := &StripeGateway{currency: string(stripe.CurrencyUSD)}
	if secretKey != "" {
		g.api = client.New(secretKey, nil)
	}
	return g
}

func (g *StripeGateway) Enabled() bool {
	return g != nil && g.api != nil
}

// CreateDepositIntent opens a card PaymentIntent for the given amount in cents.
func (g *StripeGateway) CreateDepositIntent(ctx context.Context, amount int64, metadata map[string]string) (*Intent, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Retreat deposit"),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get payment intent %s: %w", id, err)
	}
	return fromStripe(pi), nil
}

// VerifyDeposit reports whether the intent succeeded for at least minAmount cents.
func (g *StripeGateway) VerifyDeposit(ctx context.Context, intentID string, minAmount int64) (bool, error) {
	intent, err := g.GetIntent(ctx, intentID)
	if err != nil {
		return false, err
	}
	return intent.Succeeded() && intent.Amount >= minAmount, nil
}

// ParseWebhook checks the Stripe-Signature header and decodes the event.
func ParseWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	if secret == "" {
		return nil, ErrNotConfigured
	}

	// Accounts pinned to another API version still send payment_intent events
	// this package can decode.
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil && len(event.Data.Raw) > 0 && event.Data.Object["object"] == "payment_intent" {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Intent = fromStripe(&pi)
	}
	return out, nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}
