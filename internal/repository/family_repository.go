package repository

import (
	"context"
	"database/sql"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
)

// FamilyRepo provides access to the 'families' table.  Families are
// created at signup and never mutated afterwards, so the surface is
// intentionally small.
type FamilyRepo struct{ db *sql.DB }

func NewFamilyRepo(db *sql.DB) *FamilyRepo { return &FamilyRepo{db: db} }

// Create inserts a family and populates the generated ID and
// timestamps on the provided record.
func (r *FamilyRepo) Create(ctx context.Context, fam *model.Family) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO families (name) VALUES (?)", fam.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fam.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM families WHERE id=?",
		fam.ID).Scan(&fam.CreatedAt, &fam.UpdatedAt)
}

// CreateTx is the transactional variant of Create, used by
// registration so a fresh family is only committed together with
// its first member.
func (r *FamilyRepo) CreateTx(ctx context.Context, tx *sql.Tx, fam *model.Family) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO families (name) VALUES (?)", fam.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fam.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM families WHERE id=?",
		fam.ID).Scan(&fam.CreatedAt, &fam.UpdatedAt)
}

// GetByID fetches a family by id.  ErrFamilyNotFound is returned
// when no such family exists.
func (r *FamilyRepo) GetByID(ctx context.Context, id uint64) (model.Family, error) {
	var f model.Family
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at, updated_at FROM families WHERE id=? LIMIT 1",
		id).Scan(&f.ID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return f, ErrFamilyNotFound
	}
	return f, err
}
