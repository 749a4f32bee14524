package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Language  string `json:"language"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Level     int    `json:"level"`
	Confirmed bool   `json:"confirmed"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	// activationURL is prefixed to the email code in the confirmation mail.
	activationURL string
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer, activationURL string) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, mailer: mailer, activationURL: activationURL}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Users().CountByEmail(ctx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not check email availability")
		}
		if taken > 0 {
			return goerrors.New("a user with this email already exists", goerrors.CategoryConflict).
				WithTextCode("EMAIL_TAKEN")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		code := RandomEmailCode()

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Language = event.Language
		user.Level = event.Level
		user.Confirmed = event.Confirmed
		if !event.Confirmed {
			user.EmailCode = &code
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration failed")
	}

	if !user.Confirmed && user.EmailCode != nil && h.mailer != nil {
		subject, body := ActivationEmail(h.activationURL, *user.EmailCode)
		if err := h.mailer.Send(ctx, user.Email, subject, body); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "could not send activation email")
		}
	}

	return user, nil
}
