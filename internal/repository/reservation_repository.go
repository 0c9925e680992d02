package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
)

// ReservationRepo provides access to the 'reservations' table.  All
// timestamps are stored and compared in UTC.
//
// The overlap queries use inclusive interval semantics: intervals
// [s1,e1] and [s2,e2] overlap when s1 <= e2 AND s2 <= e1, so two
// bookings that merely share an endpoint still conflict.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the
// given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so the admission service can open
// the transaction that spans the ownership check, the overlap check
// and the insert.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = "id, asset_id, user_id, start_date, end_date, status, notes, created_at, updated_at"

// FindOverlappingTx returns all non-cancelled reservations for the
// asset whose intervals overlap [start, end].  The rows are selected
// FOR UPDATE: under InnoDB this locks the matching index range, so a
// concurrent admission attempt for the same asset blocks here until
// this transaction commits or rolls back.  That lock is what closes
// the check-then-insert race between concurrent requests.
func (r *ReservationRepo) FindOverlappingTx(ctx context.Context, tx *sql.Tx, assetID uint64, start, end time.Time) ([]model.Reservation, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE asset_id=? AND status<>'cancelled' AND start_date<=? AND ?<=end_date FOR UPDATE",
		assetID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		rec, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateTx inserts a new reservation within an existing transaction
// and populates the generated ID and timestamps on the record.  The
// caller must commit or roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.Reservation) error {
	var notes interface{}
	if rec.Notes != nil {
		notes = *rec.Notes
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (asset_id, user_id, start_date, end_date, status, notes) VALUES (?,?,?,?,?,?)",
		rec.AssetID, rec.UserID, rec.StartDate, rec.EndDate, rec.Status, notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM reservations WHERE id=?",
		rec.ID).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

// GetByIDForUser returns one reservation restricted to its creating
// user.  A missing row and a row owned by someone else both come
// back as sql.ErrNoRows; the cancel flow deliberately does not
// distinguish them.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id=? AND user_id=? LIMIT 1",
		id, userID)
	rec, err := scanReservation(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateStatus sets the stored status of a reservation.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE reservations SET status=? WHERE id=?", status, id)
	return err
}

// ReservationDetail joins a reservation with its asset for display.
// It is returned by the list endpoints so clients do not need a
// second round trip to resolve asset names.
type ReservationDetail struct {
	ID        uint64    `json:"id"`
	AssetID   uint64    `json:"asset_id"`
	AssetName string    `json:"asset_name"`
	AssetType string    `json:"asset_type"`
	UserID    uint64    `json:"user_id"`
	UserName  string    `json:"user_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
}

const detailQuery = "SELECT r.id, r.asset_id, a.name, a.type, r.user_id, u.display_name, r.start_date, r.end_date, r.status, r.notes FROM reservations r JOIN assets a ON a.id = r.asset_id JOIN users u ON u.id = r.user_id"

// ListByUser returns all reservations created by the given user,
// newest first.  An empty slice is returned when there are none.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		detailQuery+" WHERE r.user_id=? ORDER BY r.start_date DESC", userID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// ListByAssetForFamily returns the schedule of one asset, visible to
// any member of the owning family.  ErrAssetNotFound is returned
// when the asset does not belong to the family.
func (r *ReservationRepo) ListByAssetForFamily(ctx context.Context, assetID, familyID uint64) ([]ReservationDetail, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT family_id FROM assets WHERE id=? LIMIT 1", assetID).Scan(&owner)
	if err == sql.ErrNoRows {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner != familyID {
		return nil, ErrAssetNotFound
	}
	rows, err := r.db.QueryContext(ctx,
		detailQuery+" WHERE r.asset_id=? ORDER BY r.start_date", assetID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// ListForFamilyBetween returns every reservation on the family's
// assets whose interval intersects [from, to], ordered by start
// date.  It backs the calendar view.
func (r *ReservationRepo) ListForFamilyBetween(ctx context.Context, familyID uint64, from, to time.Time) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		detailQuery+" WHERE a.family_id=? AND r.start_date<=? AND ?<=r.end_date ORDER BY r.start_date", familyID, to, from)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

// AssetUsageStats aggregates reservation counts for a single asset.
type AssetUsageStats struct {
	AssetID   uint64         `json:"asset_id"`
	AssetName string         `json:"asset_name"`
	AssetType string         `json:"asset_type"`
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
}

// StatsByFamily returns per-asset reservation counts grouped by
// stored status for every asset the family owns.  Assets with no
// reservations still appear with a zero total.
func (r *ReservationRepo) StatsByFamily(ctx context.Context, familyID uint64) ([]AssetUsageStats, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT a.id, a.name, a.type, r.status, COUNT(r.id) FROM assets a LEFT JOIN reservations r ON r.asset_id = a.id WHERE a.family_id=? GROUP BY a.id, a.name, a.type, r.status ORDER BY a.name", familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := make([]AssetUsageStats, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var (
			id     uint64
			name   string
			typ    string
			status sql.NullString
			count  int
		)
		if err := rows.Scan(&id, &name, &typ, &status, &count); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			i = len(stats)
			index[id] = i
			stats = append(stats, AssetUsageStats{AssetID: id, AssetName: name, AssetType: typ, ByStatus: map[string]int{}})
		}
		if status.Valid {
			stats[i].ByStatus[status.String] += count
			stats[i].Total += count
		}
	}
	return stats, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var rec model.Reservation
	var notes sql.NullString
	err := row.Scan(&rec.ID, &rec.AssetID, &rec.UserID, &rec.StartDate, &rec.EndDate, &rec.Status, &notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return rec, err
	}
	if notes.Valid {
		n := notes.String
		rec.Notes = &n
	}
	return rec, nil
}

func collectDetails(rows *sql.Rows) ([]ReservationDetail, error) {
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var notes sql.NullString
		if err := rows.Scan(&d.ID, &d.AssetID, &d.AssetName, &d.AssetType, &d.UserID, &d.UserName, &d.StartDate, &d.EndDate, &d.Status, &notes); err != nil {
			return nil, err
		}
		if notes.Valid {
			n := notes.String
			d.Notes = &n
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
