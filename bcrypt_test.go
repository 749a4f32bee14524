package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-identity"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("bcrypt cost makes this slow")
	}

	hash, err := auth.HashPassword("sekret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "sekret-pass", hash)

	assert.NoError(t, auth.ComparePasswordAndHash("sekret-pass", hash))

	err = auth.ComparePasswordAndHash("wrong-pass", hash)
	assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestHashPasswordRejectsEmptyString(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)
}

func TestCompareAgainstGarbageHash(t *testing.T) {
	err := auth.ComparePasswordAndHash("anything", "not-a-bcrypt-hash")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestRandomPassword(t *testing.T) {
	p1 := auth.RandomPassword()
	p2 := auth.RandomPassword()

	assert.Len(t, p1, 8)
	assert.NotEqual(t, p1, p2)
}

func TestRandomEmailCode(t *testing.T) {
	c1 := auth.RandomEmailCode()
	c2 := auth.RandomEmailCode()

	assert.Len(t, c1, 36)
	assert.NotEqual(t, c1, c2)
}
