package identity

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the store for account records.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailCode(ctx context.Context, code string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	CountByEmail(ctx context.Context, email string) (int, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Confirm(ctx context.Context, user *User) (*User, error)
	ResetPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteWithAttributes(ctx context.Context, id int64) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository builds the bun backed Users store.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	return a.getBy(ctx, "?TableAlias.id = ?", id)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getBy(ctx, "?TableAlias.email = ?", email)
}

func (a *users) GetByEmailCode(ctx context.Context, code string) (*User, error) {
	return a.getBy(ctx, "?TableAlias.email_code = ?", code)
}

func (a *users) getBy(ctx context.Context, where string, value any) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where(where, value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	return record, nil
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	var records []*User
	if err := a.db.NewSelect().
		Model(&records).
		Order("usr.id ASC").
		Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return records, nil
}

func (a *users) CountByEmail(ctx context.Context, email string) (int, error) {
	count, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count users")
	}
	return count, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user")
	}
	return user, nil
}

func (a *users) Update(ctx context.Context, user *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, user)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	now := time.Now()
	user.UpdatedAt = &now
	if _, err := tx.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not update user")
	}
	return user, nil
}

// Confirm activates the account and clears the confirmation code.
func (a *users) Confirm(ctx context.Context, user *User) (*User, error) {
	user.Confirmed = true
	user.EmailCode = nil

	now := time.Now()
	user.UpdatedAt = &now

	if _, err := a.db.NewUpdate().
		Model(user).
		Column("confirmed", "email_code", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not activate user")
	}
	return user, nil
}

func (a *users) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not reset password")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

// DeleteWithAttributes removes a user together with every attribute attached
// to it, in one transaction.
func (a *users) DeleteWithAttributes(ctx context.Context, id int64) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Attribute)(nil)).
			Where("?TableAlias.user_id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "could not delete user attributes")
		}

		if _, err := tx.NewDelete().
			Model((*User)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "could not delete user")
		}

		return nil
	})
}
