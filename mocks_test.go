package identity_test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-identity"
)

// MockUsers is a testify mock for the Users store.
type MockUsers struct {
	mock.Mock
}

var _ auth.Users = (*MockUsers)(nil)

func (m *MockUsers) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailCode(ctx context.Context, code string) (*auth.User, error) {
	args := m.Called(ctx, code)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*auth.User)
	return users, args.Error(1)
}

func (m *MockUsers) CountByEmail(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

// RegisterTx echoes the given user on success unless the expectation
// returns an explicit record.
func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	out, _ := args.Get(0).(*auth.User)
	if out == nil && args.Error(1) == nil {
		out = user
	}
	return out, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

func (m *MockUsers) Confirm(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	out, _ := args.Get(0).(*auth.User)
	return out, args.Error(1)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) DeleteWithAttributes(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAuthenticator implements identity.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

var _ auth.Authenticator = (*MockAuthenticator)(nil)

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*auth.LoginResult)
	return result, args.Error(1)
}

func (m *MockAuthenticator) Refresh(ctx context.Context, refreshToken string) (string, *auth.AccessClaims, error) {
	args := m.Called(ctx, refreshToken)
	claims, _ := args.Get(1).(*auth.AccessClaims)
	return args.String(0), claims, args.Error(2)
}

// MockMailer records outgoing messages instead of delivering them.
type MockMailer struct {
	mock.Mock
}

var _ auth.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// mockRepo wires the MockUsers behind a RepositoryManager. Transactions run
// the callback with a zero handle, stores inside decide what to do with it.
type mockRepo struct {
	users *MockUsers
}

var _ auth.RepositoryManager = (*mockRepo)(nil)

func newMockRepo() *mockRepo {
	return &mockRepo{users: &MockUsers{}}
}

func (m *mockRepo) Users() auth.Users           { return m.users }
func (m *mockRepo) Attributes() auth.Attributes { return nil }
func (m *mockRepo) Validate() error             { return nil }

func (m *mockRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}
