package mailer

import (
	"context"

	"github.com/diagnosis/provence-bookings/pkg/config"
	"github.com/diagnosis/provence-bookings/pkg/logger"
)

type Message struct {
	ToEmail string
	ToName  string
	// ReplyTo is honoured by transports that support it.
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message and returns the provider message id when one exists.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// New picks the transport: log output in dev mode, MailerSend when an API key
// is configured, SMTP otherwise.
func New(cfg config.EmailConfig) Sender {
	switch {
	case cfg.DevMode:
		return &LogMailer{}
	case cfg.MailerSendKey != "":
		return NewMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}

// LogMailer prints messages instead of sending them.
type LogMailer struct{}

func (l *LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	logger.InfoContext(ctx, "Email (dev mode)",
		"to", msg.ToEmail,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return "", nil
}
