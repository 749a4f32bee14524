package identity

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Subject is the identity a token is issued for. The permission level is the
// bare integer identifier registered in the PermissionRegistry.
type Subject interface {
	SubjectID() int64
	PermissionLevel() int
	FirstName() string
	LastName() string
	Language() string
	Email() string
}

// SubjectLookup retrieves the current state of a subject. The refresh flow
// uses it to re-derive permissions instead of trusting claims embedded in a
// long-lived token. Implementations may block on external I/O and must honor
// context cancellation.
type SubjectLookup interface {
	FindSubject(ctx context.Context, id int64) (Subject, error)
}

// ClaimProvider contributes extension claims to an access token at issuance
// time. Providers run in registration order; on a key collision the later
// provider wins. Base payload claims are never overwritten.
type ClaimProvider interface {
	Claims(ctx context.Context, subject Subject) (map[string]any, error)
}

// TokenIssuer mints signed tokens.
type TokenIssuer interface {
	IssueAccess(ctx context.Context, subject Subject) (string, *AccessClaims, error)
	IssueRefresh(subjectID int64) (string, *RefreshClaims, error)
}

// TokenVerifier checks a presented token string against the process signing
// key. A payload is only ever reconstructed from a token that verified.
type TokenVerifier interface {
	Verify(tokenString string) (*AccessClaims, error)
	VerifyRefresh(tokenString string) (*RefreshClaims, error)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, *AccessClaims, error)
}

// LoginResult is the token pair plus the authenticated user.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Claims       *AccessClaims
	User         *User
}

// IdentityProvider ensures we have a store to verify and retrieve subjects
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, email, password string) (Subject, error)
	SubjectLookup
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Mailer delivers account emails. The core never builds delivery transports,
// it only hands off rendered messages.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Config holds auth options
type Config interface {
	GetSigningModulus() string
	GetSigningPublicExponent() string
	GetSigningPrivateExponent() string
	GetSigningKeyID() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetContextKey() string
	GetRestrictedStatus() int
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
