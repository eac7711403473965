package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the JSON payload into v.
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.Subject, err)
	}
	return nil
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(wrap(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(wrap(msg))
	})
	return err
}

// Close drains pending messages before closing the connection.
func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

func wrap(msg *nats.Msg) *Message {
	now := time.Now()
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: now,
		ID:        fmt.Sprintf("%d", now.UnixNano()),
	}
}

const (
	BookingCreated       = "booking.created"
	CustomRequestCreated = "custom_request.created"
	PaymentCaptured      = "payment.captured"
)

type Companion struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type ExtraDays struct {
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	Nights int    `json:"nights"`
}

type BookingCreatedEvent struct {
	BookingID       int64             `json:"booking_id,omitempty"`
	Status          string            `json:"status"`
	ExperienceID    string            `json:"experience_id"`
	ExperienceName  string            `json:"experience_name"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone,omitempty"`
	CustomerAddress string            `json:"customer_address,omitempty"`
	CheckIn         string            `json:"check_in"`
	CheckOut        string            `json:"check_out"`
	ExtraBefore     *ExtraDays        `json:"extra_days_before,omitempty"`
	ExtraAfter      *ExtraDays        `json:"extra_days_after,omitempty"`
	Occupancy       string            `json:"occupancy"`
	TotalGuests     int               `json:"total_guests"`
	Companions      []Companion       `json:"companions,omitempty"`
	AddOns          []string          `json:"add_ons,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	PhysicalAbility string            `json:"physical_ability,omitempty"`
	BathroomAck     bool              `json:"bathroom_ack,omitempty"`
	RoomingWith     string            `json:"rooming_with,omitempty"`
	MarketingSource string            `json:"marketing_source,omitempty"`
	AdditionalInfo  string            `json:"additional_info,omitempty"`
	Recommended     []string          `json:"recommended,omitempty"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	Pricing         pricing.Breakdown `json:"pricing"`
	CreatedAt       time.Time         `json:"created_at"`
}

type CustomRequestCreatedEvent struct {
	RequestID      int64     `json:"request_id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	PreferredDates string    `json:"preferred_dates,omitempty"`
	GroupSize      int       `json:"group_size"`
	Interests      []string  `json:"interests,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

type PaymentCapturedEvent struct {
	PaymentIntentID string    `json:"payment_intent_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	CapturedAt      time.Time `json:"captured_at"`
}
