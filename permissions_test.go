package identity_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-identity"
)

func TestPermissionRegistryBuiltins(t *testing.T) {
	registry := auth.NewPermissionRegistry()

	assert.Equal(t, "admin", registry.Resolve(auth.LevelAdmin))
	assert.Equal(t, "moderator", registry.Resolve(auth.LevelModerator))
	assert.Equal(t, "standard", registry.Resolve(auth.LevelStandard))

	assert.True(t, registry.Known(auth.LevelAdmin))
	assert.False(t, registry.Known(99))
}

func TestLevelsProcessRegistry(t *testing.T) {
	assert.Equal(t, "standard", auth.Levels.Resolve(auth.LevelStandard))
	assert.Equal(t, "admin", auth.Levels.Resolve(auth.LevelAdmin))
}

func TestPermissionRegistryRegisterIsFirstWriteWins(t *testing.T) {
	registry := auth.NewPermissionRegistry()

	assert.Equal(t, "auditor", registry.Register(7, "auditor"))
	// second registration does not overwrite the canonical name
	assert.Equal(t, "auditor", registry.Register(7, "accountant"))
	assert.Equal(t, "auditor", registry.Resolve(7))

	// built ins cannot be renamed either
	assert.Equal(t, "admin", registry.Register(auth.LevelAdmin, "root"))
}

func TestPermissionRegistryResolveUnknownGetsDefaultName(t *testing.T) {
	registry := auth.NewPermissionRegistry()

	assert.Equal(t, "custom-42", registry.Resolve(42))
	assert.True(t, registry.Known(42))

	// a later explicit registration cannot replace the default it minted
	assert.Equal(t, "custom-42", registry.Register(42, "superuser"))
}

func TestPermissionRegistryRegisterEmptyName(t *testing.T) {
	registry := auth.NewPermissionRegistry()
	assert.Equal(t, "custom-13", registry.Register(13, ""))
}

func TestPermissionRegistryLevel(t *testing.T) {
	registry := auth.NewPermissionRegistry()

	level := registry.Level(auth.LevelModerator)
	assert.Equal(t, auth.LevelModerator, level.ID)
	assert.Equal(t, "moderator", level.Name)
	assert.Equal(t, "moderator(1)", level.String())
}

func TestPermissionRegistryConcurrentRegistration(t *testing.T) {
	registry := auth.NewPermissionRegistry()

	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n] = registry.Register(7, fmt.Sprintf("name-%d", n))
		}(i)
	}
	wg.Wait()

	// whatever name won, every caller observed the same canonical one
	canonical := registry.Resolve(7)
	for _, got := range results {
		assert.Equal(t, canonical, got)
	}
}
