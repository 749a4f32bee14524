package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes give API clients a stable identifier for auth failures.
const (
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeSignatureInvalid = "TOKEN_SIGNATURE_INVALID"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrTokenExpired is returned whenever now >= exp, regardless of signature validity
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tokens whose structure cannot be parsed
var ErrTokenMalformed = errors.New("malformed authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrSignatureInvalid is returned when the signature does not check out
// against the process signing key
var ErrSignatureInvalid = errors.New("invalid token signature", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSignatureInvalid)

// ErrSubjectLookup is returned when the refresh flow cannot load the
// subject's current state. We never fabricate a token from a stale payload.
var ErrSubjectLookup = errors.New("unable to load subject for refresh", errors.CategoryOperation).
	WithTextCode("SUBJECT_LOOKUP_FAILED")

// ErrMismatchedHashAndPassword password does not match stored hash
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("CREDENTIALS_INVALID")

// ErrAccountNotConfirmed the account exists but was never activated
var ErrAccountNotConfirmed = errors.New("account is not activated", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("ACCOUNT_NOT_CONFIRMED")

// ErrNoEmptyString input should not be empty
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryBadInput)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) || hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) || hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// hasTextCode classifies a wrapped rich error by its text code. The wrapped
// cause's message is not part of Error(), so text matching alone would miss
// errors built with Wrap.
func hasTextCode(err error, textCode string) bool {
	var rich *errors.Error
	return errors.As(err, &rich) && rich.TextCode == textCode
}
