package auth

import (
	"context"
	"database/sql"
	"log"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RepositoryManager aggregates the persistence repositories and provides
// transaction scoping for multi-step operations.
type RepositoryManager interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Persons() Persons
	Addresses() Addresses
	Validate() error
	MustValidate()
}

type mngr struct {
	db        *bun.DB
	persons   Persons
	addresses Addresses
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:        db,
		persons:   NewPersonsRepository(db),
		addresses: NewAddressesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.persons == nil {
		return errors.New("repository persons should be initialized", errors.CategoryInternal)
	}

	if m.addresses == nil {
		return errors.New("repository addresses should be initialized", errors.CategoryInternal)
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Persons() Persons {
	return m.persons
}

func (m mngr) Addresses() Addresses {
	return m.addresses
}

// CreateSchema creates the persons and addresses tables if they do not
// exist. The unique constraint on persons.login is the storage-level
// uniqueness guarantee the registration flow relies on.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Person)(nil),
		(*Address)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create table")
		}
	}

	return nil
}
