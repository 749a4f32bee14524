package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserSubject adapts a User into the Subject interface for token issuance.
type UserSubject struct {
	user *User
}

// NewSubjectFromUser returns a Subject adapter for the provided user.
func NewSubjectFromUser(user *User) Subject {
	if user == nil {
		return nil
	}
	return UserSubject{user: user}
}

func (u UserSubject) SubjectID() int64 {
	if u.user == nil {
		return 0
	}
	return u.user.ID
}

func (u UserSubject) PermissionLevel() int {
	if u.user == nil {
		return LevelStandard
	}
	return u.user.Level
}

func (u UserSubject) FirstName() string {
	if u.user == nil {
		return ""
	}
	return u.user.FirstName
}

func (u UserSubject) LastName() string {
	if u.user == nil {
		return ""
	}
	return u.user.LastName
}

func (u UserSubject) Language() string {
	if u.user == nil {
		return ""
	}
	return u.user.Language
}

func (u UserSubject) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// User returns the underlying account record.
func (u UserSubject) User() *User {
	return u.user
}

// UserProvider verifies credentials and resolves subjects against the users
// store. It implements IdentityProvider for the authenticator and
// SubjectLookup for the token refresh flow.
type UserProvider struct {
	store  Users
	hasher PasswordAuthenticator
	logger Logger
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		hasher: NewPasswordHasher(),
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(logger Logger) *UserProvider {
	if logger != nil {
		u.logger = logger
	}
	return u
}

func (u *UserProvider) WithPasswordAuthenticator(hasher PasswordAuthenticator) *UserProvider {
	if hasher != nil {
		u.hasher = hasher
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the subject
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Subject, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) || errors.IsNotFound(err) {
			// indistinguishable from a wrong password on purpose
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.Confirmed {
		return nil, ErrAccountNotConfirmed
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		u.logger.Debug("password mismatch", "email", email)
		return nil, err
	}

	return NewSubjectFromUser(user), nil
}

// FindSubject resolves a subject by id, returning its current permission
// level and profile.
func (u *UserProvider) FindSubject(ctx context.Context, id int64) (Subject, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewSubjectFromUser(user), nil
}
