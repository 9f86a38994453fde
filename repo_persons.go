package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Persons is the persistence surface for account records. Tx variants take
// any bun.IDB so they compose inside RunInTx.
type Persons interface {
	GetByID(ctx context.Context, id int64) (*Person, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Person, error)
	GetByLogin(ctx context.Context, login string) (*Person, error)
	GetByLoginTx(ctx context.Context, tx bun.IDB, login string) (*Person, error)
	List(ctx context.Context) ([]*Person, error)
	Create(ctx context.Context, person *Person) error
	CreateTx(ctx context.Context, tx bun.IDB, person *Person) error
	Update(ctx context.Context, person *Person) error
	UpdateTx(ctx context.Context, tx bun.IDB, person *Person) error
	Delete(ctx context.Context, id int64) error
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) error
}

type persons struct {
	db *bun.DB
}

func NewPersonsRepository(db *bun.DB) Persons {
	return &persons{db: db}
}

func (r *persons) GetByID(ctx context.Context, id int64) (*Person, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *persons) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Person, error) {
	person := new(Person)
	err := tx.NewSelect().
		Model(person).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select person")
	}
	return person, nil
}

func (r *persons) GetByLogin(ctx context.Context, login string) (*Person, error) {
	return r.GetByLoginTx(ctx, r.db, login)
}

func (r *persons) GetByLoginTx(ctx context.Context, tx bun.IDB, login string) (*Person, error) {
	person := new(Person)
	err := tx.NewSelect().
		Model(person).
		Where("?TableAlias.login = ?", login).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select person")
	}
	return person, nil
}

func (r *persons) List(ctx context.Context) ([]*Person, error) {
	var records []*Person
	err := r.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list persons")
	}
	return records, nil
}

func (r *persons) Create(ctx context.Context, person *Person) error {
	return r.CreateTx(ctx, r.db, person)
}

func (r *persons) CreateTx(ctx context.Context, tx bun.IDB, person *Person) error {
	now := time.Now()
	person.CreatedAt = &now
	person.UpdatedAt = &now

	if _, err := tx.NewInsert().Model(person).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to insert person")
	}
	return nil
}

func (r *persons) Update(ctx context.Context, person *Person) error {
	return r.UpdateTx(ctx, r.db, person)
}

func (r *persons) UpdateTx(ctx context.Context, tx bun.IDB, person *Person) error {
	now := time.Now()
	person.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(person).
		WherePK().
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to update person")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// Delete removes a person by id. Deleting a missing person is a no-op.
func (r *persons) Delete(ctx context.Context, id int64) error {
	return r.DeleteTx(ctx, r.db, id)
}

func (r *persons) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := tx.NewDelete().
		Model((*Person)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete person")
	}
	return nil
}
