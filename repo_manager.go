package identity

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Users() Users
	Attributes() Attributes
	Validate() error
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

// Attributes is the store for profile attributes.
type Attributes interface {
	repository.Repository[*Attribute]

	ListByUser(ctx context.Context, userID int64) ([]*Attribute, error)
	GetByUserAndKey(ctx context.Context, userID int64, key string) (*Attribute, error)
	Set(ctx context.Context, userID int64, key, text string) (*Attribute, error)
	DeleteByUserAndKey(ctx context.Context, userID int64, key string) error
	DeleteByUserAndID(ctx context.Context, userID int64, id uuid.UUID) error
}

type attributes struct {
	repository.Repository[*Attribute]
	db *bun.DB
}

var _ Attributes = (*attributes)(nil)

// NewAttributesRepository builds the attributes store on go-repository-bun.
func NewAttributesRepository(db *bun.DB) Attributes {
	repo := repository.NewRepository[*Attribute](db, repository.ModelHandlers[*Attribute]{
		NewRecord: func() *Attribute { return &Attribute{} },
		GetID: func(record *Attribute) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Attribute, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "key"
		},
	})

	return &attributes{Repository: repo, db: db}
}

func (a *attributes) ListByUser(ctx context.Context, userID int64) ([]*Attribute, error) {
	var records []*Attribute
	if err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("attr.key ASC").
		Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list attributes")
	}
	return records, nil
}

func (a *attributes) GetByUserAndKey(ctx context.Context, userID int64, key string) (*Attribute, error) {
	record := &Attribute{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"user_id": userID,
				"key":     key,
			})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load attribute")
	}

	return record, nil
}

// Set creates the attribute or updates its text when the key already exists
// for the user.
func (a *attributes) Set(ctx context.Context, userID int64, key, text string) (*Attribute, error) {
	existing, err := a.GetByUserAndKey(ctx, userID, key)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			return nil, err
		}
		record := &Attribute{
			ID:     uuid.New(),
			UserID: userID,
			Key:    key,
			Text:   text,
		}
		return a.Create(ctx, record)
	}

	existing.Text = text
	now := time.Now()
	existing.UpdatedAt = &now
	return a.Update(ctx, existing)
}

func (a *attributes) DeleteByUserAndKey(ctx context.Context, userID int64, key string) error {
	res, err := a.db.NewDelete().
		Model((*Attribute)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.key = ?", key).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not delete attribute")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound()
	}
	return nil
}

func (a *attributes) DeleteByUserAndID(ctx context.Context, userID int64, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Attribute)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "could not delete attribute")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound()
	}
	return nil
}

type mngr struct {
	db         *bun.DB
	users      Users
	attributes Attributes
}

// NewRepositoryManager aggregates the stores over one bun handle.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		users:      NewUsersRepository(db),
		attributes: NewAttributesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized", errors.CategoryInternal)
	}
	if m.attributes == nil {
		return errors.New("repository attributes should be initialized", errors.CategoryInternal)
	}
	return nil
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Attributes() Attributes {
	return m.attributes
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return m.db.RunInTx(ctx, opts, f)
}
