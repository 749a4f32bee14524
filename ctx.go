package identity

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var payloadCtxKey = &contextKey{"payload"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithPayloadContext sets the verified token payload in the given context
func WithPayloadContext(r context.Context, payload *AccessClaims) context.Context {
	return context.WithValue(r, payloadCtxKey, payload)
}

// PayloadFromContext extracts the verified token payload from the standard context
func PayloadFromContext(ctx context.Context) (*AccessClaims, bool) {
	raw, ok := ctx.Value(payloadCtxKey).(*AccessClaims)
	return raw, ok
}

// RouterPayload extracts the verified token payload from the router context.
// The key defaults to the one the authorization middleware stores under.
func RouterPayload(ctx router.Context, key string) (*AccessClaims, bool) {
	if key == "" {
		key = "payload"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	payload, ok := raw.(*AccessClaims)
	return payload, ok
}
