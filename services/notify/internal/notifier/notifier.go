package notifier

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/provence-bookings/internal/platform/mailer"
	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/internal/utils"
	"github.com/diagnosis/provence-bookings/pkg/events"
	"github.com/diagnosis/provence-bookings/pkg/logger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Notifier turns booking and inquiry events into emails for the business
// and the customer.
type Notifier struct {
	sender        mailer.Sender
	businessEmail string
	businessName  string
	html          *htmltemplate.Template
	text          *texttemplate.Template
}

func New(sender mailer.Sender, businessEmail, businessName string) (*Notifier, error) {
	funcs := map[string]any{
		"usd":      pricing.FormatUSD,
		"join":     strings.Join,
		"business": func() string { return businessName },
	}

	html, err := htmltemplate.New("emails").Funcs(funcs).ParseFS(templateFS, "templates/emails.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.New("emails").Funcs(funcs).ParseFS(templateFS, "templates/emails.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}

	return &Notifier{
		sender:        sender,
		businessEmail: businessEmail,
		businessName:  businessName,
		html:          html,
		text:          text,
	}, nil
}

func (n *Notifier) BookingCreated(ctx context.Context, evt events.BookingCreatedEvent) error {
	business, err := n.render("booking_business", evt)
	if err != nil {
		return err
	}
	business.ToEmail = n.businessEmail
	business.ToName = n.businessName
	business.ReplyTo = evt.CustomerEmail
	business.Subject = "New Booking Request: " + evt.ExperienceName

	customer, err := n.render("booking_customer", evt)
	if err != nil {
		return err
	}
	customer.ToEmail = evt.CustomerEmail
	customer.ToName = evt.CustomerName
	customer.Subject = "Booking Request Received - " + n.businessName

	return n.sendBoth(ctx, business, customer)
}

func (n *Notifier) CustomRequestCreated(ctx context.Context, evt events.CustomRequestCreatedEvent) error {
	business, err := n.render("custom_business", evt)
	if err != nil {
		return err
	}
	business.ToEmail = n.businessEmail
	business.ToName = n.businessName
	business.ReplyTo = evt.Email
	business.Subject = "Custom Request: " + evt.Name

	customer, err := n.render("custom_customer", evt)
	if err != nil {
		return err
	}
	customer.ToEmail = evt.Email
	customer.ToName = evt.Name
	customer.Subject = "Custom Request Received - " + n.businessName

	return n.sendBoth(ctx, business, customer)
}

func (n *Notifier) render(name string, data any) (mailer.Message, error) {
	var html, text bytes.Buffer
	if err := n.html.ExecuteTemplate(&html, name, data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := n.text.ExecuteTemplate(&text, name, data); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s text: %w", name, err)
	}
	return mailer.Message{
		HTML: strings.TrimSpace(html.String()),
		Text: strings.TrimSpace(text.String()),
	}, nil
}

// sendBoth sends the two emails concurrently. One failing does not cancel
// the other; the first error is returned.
func (n *Notifier) sendBoth(ctx context.Context, business, customer mailer.Message) error {
	var g errgroup.Group
	for _, msg := range []mailer.Message{business, customer} {
		g.Go(func() error {
			id, err := n.sender.Send(ctx, msg)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to send email",
					"error", err,
					"to", utils.MaskEmail(msg.ToEmail),
					"subject", msg.Subject,
				)
				return err
			}
			logger.InfoContext(ctx, "Email sent", "to", utils.MaskEmail(msg.ToEmail), "message_id", id)
			return nil
		})
	}
	return g.Wait()
}

// HandleBookingCreated consumes booking.created.
func (n *Notifier) HandleBookingCreated(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.WithService(ctx, "notify")

	var evt events.BookingCreatedEvent
	if err := msg.Decode(&evt); err != nil {
		logger.ErrorContext(ctx, "Invalid booking created event", "error", err)
		return
	}
	if evt.BookingID != 0 {
		ctx = logger.WithBookingID(ctx, fmt.Sprint(evt.BookingID))
	}
	if err := n.BookingCreated(ctx, evt); err != nil {
		logger.ErrorContext(ctx, "Booking notification incomplete", "error", err)
	}
}

// HandleCustomRequestCreated consumes custom_request.created.
func (n *Notifier) HandleCustomRequestCreated(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.WithService(ctx, "notify")

	var evt events.CustomRequestCreatedEvent
	if err := msg.Decode(&evt); err != nil {
		logger.ErrorContext(ctx, "Invalid custom request event", "error", err)
		return
	}
	if err := n.CustomRequestCreated(ctx, evt); err != nil {
		logger.ErrorContext(ctx, "Custom request notification incomplete", "error", err)
	}
}
