package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultAccessTokenTTL is the access token lifetime.
const DefaultAccessTokenTTL = time.Hour

// DefaultRefreshTokenTTL is the refresh token lifetime.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// DefaultSubjectLookupTimeout bounds the refresh flow's subject lookup so a
// slow store cannot stall request handling indefinitely.
const DefaultSubjectLookupTimeout = 5 * time.Second

// TokenService issues, signs and verifies access and refresh tokens with the
// process signing key. It is immutable after construction and safe for
// concurrent use.
type TokenService struct {
	key           *SigningKey
	accessTTL     time.Duration
	refreshTTL    time.Duration
	lookupTimeout time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	providers     []ClaimProvider
	logger        Logger
}

var (
	_ TokenIssuer   = (*TokenService)(nil)
	_ TokenVerifier = (*TokenService)(nil)
)

type TokenServiceOption func(*TokenService)

// WithAccessTokenTTL overrides the access token lifetime.
func WithAccessTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.accessTTL = ttl
		}
	}
}

// WithRefreshTokenTTL overrides the refresh token lifetime.
func WithRefreshTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.refreshTTL = ttl
		}
	}
}

// WithSubjectLookupTimeout bounds the refresh flow's subject lookup.
func WithSubjectLookupTimeout(timeout time.Duration) TokenServiceOption {
	return func(ts *TokenService) {
		if timeout > 0 {
			ts.lookupTimeout = timeout
		}
	}
}

// WithIssuer sets the iss claim and enforces it during verification.
func WithIssuer(issuer string) TokenServiceOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
	}
}

// WithAudience sets the aud claim and enforces it during verification.
func WithAudience(audience ...string) TokenServiceOption {
	return func(ts *TokenService) {
		ts.audience = audience
	}
}

// WithClaimProviders registers extension claim contributors, invoked in the
// given order at issuance time.
func WithClaimProviders(providers ...ClaimProvider) TokenServiceOption {
	return func(ts *TokenService) {
		ts.providers = append(ts.providers, providers...)
	}
}

// WithTokenLogger sets the service logger.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(key *SigningKey, opts ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		key:           key,
		accessTTL:     DefaultAccessTokenTTL,
		refreshTTL:    DefaultRefreshTokenTTL,
		lookupTimeout: DefaultSubjectLookupTimeout,
		logger:        defLogger{},
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// IssueAccess serializes the subject's base claims, merges in provider
// contributed extensions, signs the payload and returns the token string
// along with the claims it carries.
func (ts *TokenService) IssueAccess(ctx context.Context, subject Subject) (string, *AccessClaims, error) {
	if subject == nil {
		return "", nil, errors.New("subject must not be nil", errors.CategoryInternal)
	}

	now := time.Now()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subjectString(subject.SubjectID()),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
		TokenType:    TokenTypeAccess,
		UID:          subject.SubjectID(),
		Level:        subject.PermissionLevel(),
		FirstName:    subject.FirstName(),
		LastName:     subject.LastName(),
		Language:     subject.Language(),
		EmailAddress: subject.Email(),
	}

	extra, err := composeProviderClaims(ctx, subject, ts.providers)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CategoryOperation, "claim provider failed")
	}
	claims.Extra = extra

	token, err := ts.sign(claims)
	if err != nil {
		return "", nil, err
	}

	return token, claims, nil
}

// IssueRefresh mints the minimal long lived refresh token for a subject.
func (ts *TokenService) IssueRefresh(subjectID int64) (string, *RefreshClaims, error) {
	now := time.Now()
	claims := &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subjectString(subjectID),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
		},
		TokenType: TokenTypeRefresh,
		UID:       subjectID,
	}

	token, err := ts.sign(claims)
	if err != nil {
		return "", nil, err
	}

	return token, claims, nil
}

// sign signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = ts.key.KeyID()
	token.Header["crit"] = criticalHeaders

	signed, err := token.SignedString(ts.key.Private())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Verify parses and validates an access token string, returning its payload.
// It never reconstructs a payload from a token that failed verification. A
// refresh token is rejected as malformed: its payload carries no permission
// level, and a zero level would read as admin.
func (ts *TokenService) Verify(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		ts.logger.Error("TokenService verify rejected non-access payload", "typ", claims.TokenType)
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token string. An access token
// is rejected as malformed so a stolen bearer token cannot mint fresh access
// tokens for its remaining lifetime.
func (ts *TokenService) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		ts.logger.Error("TokenService verify rejected non-refresh payload", "typ", claims.TokenType)
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func (ts *TokenService) parse(tokenString string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{SigningAlgorithm}),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		options = append(options, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		options = append(options, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, ErrSignatureInvalid
		}
		if kid, ok := t.Header["kid"].(string); ok && kid != ts.key.KeyID() {
			return nil, ErrSignatureInvalid
		}
		return ts.key.Public(), nil
	}, options...)

	if err != nil {
		// An expired token is reported as expired even when the signature
		// also failed to verify against this key.
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrSignatureInvalid):
			return ErrSignatureInvalid
		default:
			return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode)
		}
	}

	if !token.Valid {
		ts.logger.Error("TokenService verify could not validate claims")
		return ErrTokenMalformed
	}

	return nil
}

// Refresh verifies a refresh token, re-loads the subject's current
// permission level and profile through lookup, and issues a fresh access
// token. Permissions embedded in older access tokens are never reused, so a
// demotion takes effect on the next refresh.
func (ts *TokenService) Refresh(ctx context.Context, refreshToken string, lookup SubjectLookup) (string, *AccessClaims, error) {
	claims, err := ts.VerifyRefresh(refreshToken)
	if err != nil {
		return "", nil, err
	}

	if lookup == nil {
		return "", nil, errors.New("subject lookup is required", errors.CategoryInternal)
	}

	ctx, cancel := context.WithTimeout(ctx, ts.lookupTimeout)
	defer cancel()

	subject, err := lookup.FindSubject(ctx, claims.UID)
	if err != nil {
		return "", nil, errors.Wrap(err, ErrSubjectLookup.Category, ErrSubjectLookup.Message).
			WithTextCode(ErrSubjectLookup.TextCode).
			WithMetadata(map[string]any{"subject_id": claims.UID})
	}

	return ts.IssueAccess(ctx, subject)
}
