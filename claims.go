package identity

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminator values carried in the typ claim. Verification
// requires the matching value so an access token can never stand in for a
// refresh token or the other way around.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessClaims is the payload carried by an access token: the subject id and
// permission level plus optional profile fields, with an open extension map
// for provider contributed claims. Extensions are flattened into the top
// level JWT payload on the wire.
type AccessClaims struct {
	jwt.RegisteredClaims
	TokenType    string         `json:"typ,omitempty"`
	UID          int64          `json:"id"`
	Level        int            `json:"status"`
	FirstName    string         `json:"firstname,omitempty"`
	LastName     string         `json:"lastname,omitempty"`
	Language     string         `json:"language,omitempty"`
	EmailAddress string         `json:"email,omitempty"`
	Extra        map[string]any `json:"-"`
}

// baseClaimKeys are payload fields a ClaimProvider may never overwrite.
var baseClaimKeys = map[string]struct{}{
	"typ": {}, "id": {}, "status": {}, "firstname": {}, "lastname": {},
	"language": {}, "email": {},
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "nbf": {}, "iat": {}, "jti": {},
}

// SubjectID returns the subject identifier.
func (c *AccessClaims) SubjectID() int64 {
	return c.UID
}

// PermissionLevel returns the bare integer level identifier.
func (c *AccessClaims) PermissionLevel() int {
	return c.Level
}

// Email returns the subject's email address.
func (c *AccessClaims) Email() string {
	return c.EmailAddress
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *AccessClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Extension returns a provider contributed claim by key.
func (c *AccessClaims) Extension(key string) (any, bool) {
	v, ok := c.Extra[key]
	return v, ok
}

type accessClaimsAlias AccessClaims

// MarshalJSON flattens extension claims into the top level payload. Base
// claim keys always win over a colliding extension.
func (c AccessClaims) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(accessClaimsAlias(c))
	if err != nil {
		return nil, err
	}

	if len(c.Extra) == 0 {
		return base, nil
	}

	merged := map[string]json.RawMessage{}
	for key, value := range c.Extra {
		if _, reserved := baseClaimKeys[key]; reserved {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		merged[key] = raw
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for key, raw := range fields {
		merged[key] = raw
	}

	return json.Marshal(merged)
}

// UnmarshalJSON restores the struct fields and collects every unknown top
// level key back into the extension map.
func (c *AccessClaims) UnmarshalJSON(data []byte) error {
	var alias accessClaimsAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*c = AccessClaims(alias)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for key := range fields {
		if _, reserved := baseClaimKeys[key]; reserved {
			delete(fields, key)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	c.Extra = make(map[string]any, len(fields))
	for key, raw := range fields {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
		c.Extra[key] = value
	}

	return nil
}

// RefreshClaims is the deliberately minimal payload of a refresh token. It
// carries no permission level so a refreshed session always re-derives
// current permissions.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ,omitempty"`
	UID       int64  `json:"id"`
}

// SubjectID returns the subject identifier.
func (c *RefreshClaims) SubjectID() int64 {
	return c.UID
}

// Expires returns the expiration time
func (c *RefreshClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

func subjectString(id int64) string {
	return strconv.FormatInt(id, 10)
}
