package identity_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-identity"
)

func TestUserContext(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	user := &auth.User{ID: 7, Email: "ctx@example.com"}
	ctx := auth.WithContext(context.Background(), user)

	got, ok := auth.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestPayloadContext(t *testing.T) {
	_, ok := auth.PayloadFromContext(context.Background())
	assert.False(t, ok)

	payload := &auth.AccessClaims{UID: 42, Level: 2}
	ctx := auth.WithPayloadContext(context.Background(), payload)

	got, ok := auth.PayloadFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestRouterPayload(t *testing.T) {
	payload := &auth.AccessClaims{UID: 42}

	ctx := router.NewMockContext()
	ctx.LocalsMock["payload"] = payload

	got, ok := auth.RouterPayload(ctx, "")
	assert.True(t, ok)
	assert.Equal(t, payload, got)

	got, ok = auth.RouterPayload(ctx, "payload")
	assert.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestRouterPayloadCustomKey(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock["session"] = &auth.AccessClaims{UID: 1}

	_, ok := auth.RouterPayload(ctx, "")
	assert.False(t, ok)

	_, ok = auth.RouterPayload(ctx, "session")
	assert.True(t, ok)
}

func TestRouterPayloadWrongType(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock["payload"] = "not-claims"

	_, ok := auth.RouterPayload(ctx, "")
	assert.False(t, ok)
}
