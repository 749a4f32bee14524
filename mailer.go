package identity

import (
	"context"
	"fmt"
)

// LogMailer writes outbound mail to the logger instead of delivering it.
// It is the default collaborator for development and tests; deployments
// plug in a real transport through the Mailer interface.
type LogMailer struct {
	logger Logger
}

// NewLogMailer returns a Mailer that logs instead of sending.
func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("mail suppressed", "to", to, "subject", subject, "body", body)
	return nil
}

// ActivationEmail renders the account confirmation message. The URL carries
// the user's one time email code.
func ActivationEmail(activationURL, code string) (subject, body string) {
	subject = "Activate your account"
	body = fmt.Sprintf(
		"Welcome! Confirm your account by opening the link below.\n\n%s%s\n\nIf you did not create this account, ignore this message.",
		activationURL, code,
	)
	return subject, body
}

// NewPasswordEmail renders the replacement password message.
func NewPasswordEmail(password string) (subject, body string) {
	subject = "Your new password"
	body = fmt.Sprintf(
		"A new password was requested for your account.\n\nPassword: %s\n\nChange it after signing in.",
		password,
	)
	return subject, body
}
