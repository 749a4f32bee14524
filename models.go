package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. The permission level column stores the bare
// integer identifier; the display name lives in the PermissionRegistry.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	FirstName     string     `bun:"firstname" json:"firstname,omitempty"`
	LastName      string     `bun:"lastname" json:"lastname,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Language      string     `bun:"language,notnull" json:"language,omitempty"`
	Level         int        `bun:"permission_level,notnull" json:"permission_level"`
	Confirmed     bool       `bun:"confirmed" json:"confirmed"`
	EmailCode     *string    `bun:"email_code,nullzero" json:"-"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Attribute is an arbitrary key/value blob attached to a user profile.
type Attribute struct {
	bun.BaseModel `bun:"table:attributes,alias:attr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	Key           string     `bun:"key,notnull" json:"key"`
	Text          string     `bun:"text,notnull" json:"text"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserResponse is the public representation of a user. Profile requests
// include the attached attributes, list endpoints may omit them.
type UserResponse struct {
	ID         int64        `json:"id"`
	FirstName  string       `json:"firstname,omitempty"`
	LastName   string       `json:"lastname,omitempty"`
	Email      string       `json:"email"`
	Language   string       `json:"language,omitempty"`
	Level      int          `json:"permission_level"`
	Role       string       `json:"role"`
	Confirmed  bool         `json:"confirmed"`
	Attributes []*Attribute `json:"attributes,omitempty"`
}

// NewUserResponse builds the response representation for a user.
func NewUserResponse(user *User, attributes []*Attribute) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:         user.ID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		Language:   user.Language,
		Level:      user.Level,
		Role:       Levels.Resolve(user.Level),
		Confirmed:  user.Confirmed,
		Attributes: attributes,
	}
}

// UserUpdate is the admin facing patch body; nil fields stay untouched.
type UserUpdate struct {
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Email     *string `json:"email"`
	Language  *string `json:"language"`
	Confirmed *bool   `json:"confirmed"`
	Level     *int    `json:"permission_level"`
}

// Apply copies the set fields onto the user.
func (u UserUpdate) Apply(user *User) {
	if u.FirstName != nil {
		user.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		user.LastName = *u.LastName
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Language != nil {
		user.Language = *u.Language
	}
	if u.Confirmed != nil {
		user.Confirmed = *u.Confirmed
	}
	if u.Level != nil {
		user.Level = *u.Level
	}
}
