package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Addresses is the persistence surface for property records.
type Addresses interface {
	GetByID(ctx context.Context, id int64) (*Address, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Address, error)
	Create(ctx context.Context, address *Address) error
	CreateTx(ctx context.Context, tx bun.IDB, address *Address) error
	Delete(ctx context.Context, id int64) error
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) error
	DeleteByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) error
}

type addresses struct {
	db *bun.DB
}

func NewAddressesRepository(db *bun.DB) Addresses {
	return &addresses{db: db}
}

func (r *addresses) GetByID(ctx context.Context, id int64) (*Address, error) {
	address := new(Address)
	err := r.db.NewSelect().
		Model(address).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to select address")
	}
	return address, nil
}

func (r *addresses) ListByOwner(ctx context.Context, ownerID int64) ([]*Address, error) {
	var records []*Address
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list addresses")
	}
	return records, nil
}

func (r *addresses) Create(ctx context.Context, address *Address) error {
	return r.CreateTx(ctx, r.db, address)
}

func (r *addresses) CreateTx(ctx context.Context, tx bun.IDB, address *Address) error {
	now := time.Now()
	address.CreatedAt = &now

	if _, err := tx.NewInsert().Model(address).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to insert address")
	}
	return nil
}

func (r *addresses) Delete(ctx context.Context, id int64) error {
	return r.DeleteTx(ctx, r.db, id)
}

func (r *addresses) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := tx.NewDelete().
		Model((*Address)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete address")
	}
	return nil
}

// DeleteByOwnerTx removes every address owned by the account, used when the
// account itself goes away.
func (r *addresses) DeleteByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) error {
	_, err := tx.NewDelete().
		Model((*Address)(nil)).
		Where("?TableAlias.owner_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete addresses for owner")
	}
	return nil
}
