package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther implements the Authenticator interface on top of an
// IdentityProvider and a TokenService.
type Auther struct {
	provider IdentityProvider
	tokens   *TokenService
	logger   Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, tokens *TokenService) *Auther {
	return &Auther{
		provider: provider,
		tokens:   tokens,
		logger:   defLogger{},
	}
}

func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// TokenService returns the TokenService instance used by this Authenticator
func (a *Auther) TokenService() *TokenService {
	return a.tokens
}

// Login verifies the credentials and issues the access/refresh token pair.
func (a *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	subject, err := a.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		a.logger.Info("login rejected", "email", email, "error", err)
		return nil, err
	}

	access, claims, err := a.tokens.IssueAccess(ctx, subject)
	if err != nil {
		a.logger.Error("login could not issue access token", "error", err)
		return nil, err
	}

	refresh, _, err := a.tokens.IssueRefresh(subject.SubjectID())
	if err != nil {
		a.logger.Error("login could not issue refresh token", "error", err)
		return nil, err
	}

	result := &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Claims:       claims,
	}
	if adapter, ok := subject.(UserSubject); ok {
		result.User = adapter.User()
	}

	return result, nil
}

// Refresh exchanges a valid refresh token for a new access token carrying
// the subject's current permissions.
func (a *Auther) Refresh(ctx context.Context, refreshToken string) (string, *AccessClaims, error) {
	if refreshToken == "" {
		return "", nil, errors.New("refresh token is required", errors.CategoryBadInput)
	}
	return a.tokens.Refresh(ctx, refreshToken, a.provider)
}
