package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type NewPasswordMessage struct {
	Email string `json:"email"`
}

func (e NewPasswordMessage) Type() string { return "user.new_password" }

// NewPasswordHandler replaces the password of a confirmed account with a
// freshly generated one and mails it to the account owner. Requests for
// unknown addresses succeed silently so the endpoint does not leak which
// emails are registered.
type NewPasswordHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	mailer Mailer
}

func NewNewPasswordHandler(repo RepositoryManager, hasher PasswordAuthenticator, mailer Mailer) *NewPasswordHandler {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	return &NewPasswordHandler{repo: repo, hasher: hasher, mailer: mailer}
}

func (h *NewPasswordHandler) Execute(ctx context.Context, event NewPasswordMessage) error {
	if event.Email == "" {
		return goerrors.New("email is required", goerrors.CategoryBadInput).
			WithTextCode("EMAIL_REQUIRED")
	}

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not look up account")
	}

	password := RandomPassword()
	hash, err := h.hasher.HashPassword(password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := h.repo.Users().ResetPassword(ctx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not store new password")
	}

	if h.mailer != nil {
		subject, body := NewPasswordEmail(password)
		if err := h.mailer.Send(ctx, user.Email, subject, body); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "could not send new password email")
		}
	}

	return nil
}
