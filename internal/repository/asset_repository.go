package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
)

// AssetRepo provides access to the 'assets' table.  Every read is
// scoped to a family id: an asset id belonging to another family is
// treated exactly like a nonexistent one, which is the tenant
// boundary the admission flow relies on.  The free-form metadata map
// is stored as a JSON document in a single column.
type AssetRepo struct{ db *sql.DB }

// NewAssetRepo returns a new AssetRepo bound to the given database.
func NewAssetRepo(db *sql.DB) *AssetRepo { return &AssetRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *AssetRepo) DB() *sql.DB { return r.db }

// Create inserts an asset and populates the generated ID and
// timestamps.  The caller must have validated the asset type.
func (r *AssetRepo) Create(ctx context.Context, a *model.Asset) error {
	meta, err := encodeMetadata(a.Metadata)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO assets (family_id, name, type, metadata) VALUES (?,?,?,?)",
		a.FamilyID, a.Name, a.Type, meta)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM assets WHERE id=?",
		a.ID).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// GetByIDAndFamily fetches one asset scoped to a family.
// ErrAssetNotFound covers both a missing id and an id owned by a
// different family.
func (r *AssetRepo) GetByIDAndFamily(ctx context.Context, id, familyID uint64) (*model.Asset, error) {
	return scanAsset(r.db.QueryRowContext(ctx,
		"SELECT id, family_id, name, type, metadata, created_at, updated_at FROM assets WHERE id=? AND family_id=? LIMIT 1",
		id, familyID))
}

// GetByIDAndFamilyTx is the transactional variant of GetByIDAndFamily,
// used by the admission flow so the ownership check shares the
// transaction with the overlap check and the insert.
func (r *AssetRepo) GetByIDAndFamilyTx(ctx context.Context, tx *sql.Tx, id, familyID uint64) (*model.Asset, error) {
	return scanAsset(tx.QueryRowContext(ctx,
		"SELECT id, family_id, name, type, metadata, created_at, updated_at FROM assets WHERE id=? AND family_id=? LIMIT 1",
		id, familyID))
}

// ListByFamily returns all assets owned by a family ordered by name.
func (r *AssetRepo) ListByFamily(ctx context.Context, familyID uint64) ([]model.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, family_id, name, type, metadata, created_at, updated_at FROM assets WHERE family_id=? ORDER BY name",
		familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	assets := make([]model.Asset, 0)
	for rows.Next() {
		var a model.Asset
		var meta sql.NullString
		if err := rows.Scan(&a.ID, &a.FamilyID, &a.Name, &a.Type, &meta, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if err := decodeMetadata(meta, &a); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// Delete removes an asset scoped to a family.  It refuses with
// ErrConflict while any non-cancelled reservation references the
// asset so schedules cannot silently disappear.  ErrAssetNotFound is
// returned when the asset does not exist for this family.
func (r *AssetRepo) Delete(ctx context.Context, id, familyID uint64) error {
	// Ownership first: a foreign asset must read as nonexistent, so
	// its booking state is never consulted.
	var owned uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM assets WHERE id=? AND family_id=? LIMIT 1",
		id, familyID).Scan(&owned)
	if err == sql.ErrNoRows {
		return ErrAssetNotFound
	}
	if err != nil {
		return err
	}
	var active int
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE asset_id=? AND status<>'cancelled'",
		id).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM assets WHERE id=? AND family_id=?", id, familyID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func scanAsset(row *sql.Row) (*model.Asset, error) {
	var a model.Asset
	var meta sql.NullString
	err := row.Scan(&a.ID, &a.FamilyID, &a.Name, &a.Type, &meta, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := decodeMetadata(meta, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func encodeMetadata(m map[string]string) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeMetadata(raw sql.NullString, a *model.Asset) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), &a.Metadata)
}
