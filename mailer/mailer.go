package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Config holds the SMTP settings for the outbound channel.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends account emails over SMTP.
type Mailer struct {
	config Config
	dialer *gomail.Dialer
}

// Email represents an outbound message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// New creates a Mailer from the given SMTP configuration.
func New(cfg Config) *Mailer {
	return &Mailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers a single email.
func (m *Mailer) Send(email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	return m.dialer.DialAndSend(msg)
}

// SendVerificationCode emails the registration code to a new account.
func (m *Mailer) SendVerificationCode(_ context.Context, to, fullname, code string) error {
	greeting := "Hello"
	if fullname != "" {
		greeting = fmt.Sprintf("Hello %s", fullname)
	}

	body := fmt.Sprintf(
		"%s,\n\nYour verification code is: %s\n\nEnter it to finish creating your account. The code expires shortly, so use it soon.\n",
		greeting,
		code,
	)

	return m.Send(Email{
		To:      []string{to},
		Subject: "Your verification code",
		Body:    body,
	})
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}
