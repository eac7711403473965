package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/diagnosis/provence-bookings/pkg/config"
)

func TestNew_PicksTransport(t *testing.T) {
	if _, ok := New(config.EmailConfig{DevMode: true, MailerSendKey: "k"}).(*LogMailer); !ok {
		t.Error("dev mode should log")
	}
	if m, ok := New(config.EmailConfig{MailerSendKey: "k", SMTPFrom: "a@b.co"}).(*Mailer); !ok || !m.Enabled {
		t.Error("api key should select MailerSend")
	}
	if _, ok := New(config.EmailConfig{SMTPHost: "localhost", SMTPPort: 1025}).(*SMTPMailer); !ok {
		t.Error("fallback should be SMTP")
	}
}

func TestMailer_DisabledWithoutKey(t *testing.T) {
	m := NewMailer("", "Provence", "hello@provence.local")
	if _, err := m.Send(context.Background(), Message{ToEmail: "a@b.co"}); err == nil {
		t.Error("expected error when disabled")
	}
}

func TestSMTPMailer_Build(t *testing.T) {
	s := NewSMTPMailer("localhost", 1025, "noreply@provence.local", "", "", false)
	raw := string(s.build(Message{
		ToEmail: "owner@provence.local",
		ToName:  "Owner",
		ReplyTo: "guest@example.com",
		Subject: "New booking: Cheese & Wine",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}))

	for _, want := range []string{
		"From: noreply@provence.local\r\n",
		"To: Owner <owner@provence.local>\r\n",
		"Reply-To: guest@example.com\r\n",
		"Subject: New booking: Cheese & Wine\r\n",
		"plain body",
		"<p>html body</p>",
		"--alt-boundary--",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestSMTPMailer_RejectsEmptyRecipient(t *testing.T) {
	s := NewSMTPMailer("localhost", 1025, "noreply@provence.local", "", "", false)
	if _, err := s.Send(context.Background(), Message{ToEmail: "  "}); err == nil {
		t.Error("expected error for empty recipient")
	}
}

func TestLogMailer(t *testing.T) {
	id, err := (&LogMailer{}).Send(context.Background(), Message{ToEmail: "a@b.co", Subject: "hi"})
	if err != nil || id != "" {
		t.Errorf("LogMailer.Send = %q, %v", id, err)
	}
}
