package identity

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/goliatone/go-errors"
)

// SMTPConfig carries the settings for the SMTP mail transport.
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// SMTPMailer delivers mail over plain SMTP with PLAIN auth.
type SMTPMailer struct {
	config SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a Mailer backed by net/smtp.
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		send:   smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		m.config.From, to, subject, body,
	))

	if err := m.send(addr, auth, m.config.From, []string{to}, msg); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to send email").
			WithMetadata(map[string]any{
				"to":      to,
				"subject": subject,
			})
	}
	return nil
}
