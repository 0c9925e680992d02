package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
	"github.com/jdvansice-cloud/reservepty-api/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  The email is normalized
// to lower case and the password is hashed with bcrypt at the given
// cost before storage.  Tier must already be clamped to [1,4] by the
// caller; familyID may be nil for a user who has not joined a family.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName string, familyID *uint64, tier uint8, cost int) (uint64, error) {
	return createUser(ctx, r.DB, email, password, displayName, familyID, tier, cost)
}

// CreateTx is the transactional variant of Create; registration uses
// it so the user insert shares a transaction with the family insert.
func (r *UserRepo) CreateTx(ctx context.Context, tx *sql.Tx, email, password, displayName string, familyID *uint64, tier uint8, cost int) (uint64, error) {
	return createUser(ctx, tx, email, password, displayName, familyID, tier, cost)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func createUser(ctx context.Context, ex execer, email, password, displayName string, familyID *uint64, tier uint8, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var fam interface{}
	if familyID != nil {
		fam = *familyID
	}
	res, err := ex.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, display_name, family_id, tier) VALUES (?,?,?,?,?)",
		email, hash, displayName, fam, tier)
	if err != nil {
		// MySQL duplicate-key errors carry code 1062
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, display_name, family_id, tier, is_active, created_at, updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, display_name, family_id, tier, is_active, created_at, updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	var fam sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &fam, &u.Tier, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if fam.Valid {
		f := uint64(fam.Int64)
		u.FamilyID = &f
	}
	return u, nil
}

// TokenRepo persists and validates refresh tokens.  Only the SHA-256
// hash of a token is ever stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the owning user ID when a non-revoked,
// non-expired token with the given hash exists.  Expired or revoked
// tokens are reported as sql.ErrNoRows so callers treat them exactly
// like unknown tokens.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// RevokeByHash marks a single token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every active token belonging to a user,
// logging them out of all sessions.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
