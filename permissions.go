package identity

import (
	"fmt"
	"sync"
)

// Built in permission level identifiers. The wire representation of a level
// is always the bare integer, never the display name.
const (
	LevelAdmin     = 0
	LevelModerator = 1
	LevelStandard  = 2
)

// PermissionLevel pairs a level identifier with its canonical display name.
type PermissionLevel struct {
	ID   int
	Name string
}

func (l PermissionLevel) String() string {
	return fmt.Sprintf("%s(%d)", l.Name, l.ID)
}

// Levels is the process wide registry. Response serialization resolves
// display names through it; deployments register custom levels at bootstrap.
var Levels = NewPermissionRegistry()

// PermissionRegistry is a process wide, append only mapping from level
// identifier to display name. Registration is idempotent: the first name
// registered for an identifier is canonical and later registrations for the
// same identifier do not overwrite it.
type PermissionRegistry struct {
	mu    sync.RWMutex
	names map[int]string
}

// NewPermissionRegistry returns a registry seeded with the built in levels.
func NewPermissionRegistry() *PermissionRegistry {
	return &PermissionRegistry{
		names: map[int]string{
			LevelAdmin:     "admin",
			LevelModerator: "moderator",
			LevelStandard:  "standard",
		},
	}
}

// Register maps an identifier to a display name and returns the canonical
// name for that identifier, which may differ from the one passed in if the
// identifier was registered before.
func (r *PermissionRegistry) Register(id int, name string) string {
	if name == "" {
		name = defaultLevelName(id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.names[id]; ok {
		return existing
	}
	r.names[id] = name
	return name
}

// Resolve returns the display name for an identifier, registering the
// default `custom-<id>` name when the identifier is unknown.
func (r *PermissionRegistry) Resolve(id int) string {
	r.mu.RLock()
	name, ok := r.names[id]
	r.mu.RUnlock()
	if ok {
		return name
	}
	return r.Register(id, defaultLevelName(id))
}

// Level returns the identifier together with its canonical name.
func (r *PermissionRegistry) Level(id int) PermissionLevel {
	return PermissionLevel{ID: id, Name: r.Resolve(id)}
}

// Known reports whether an identifier has been registered, without
// registering a default name for it.
func (r *PermissionRegistry) Known(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[id]
	return ok
}

func defaultLevelName(id int) string {
	return fmt.Sprintf("custom-%d", id)
}
