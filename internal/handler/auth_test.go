package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/config"
	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
)

const (
	familyInsertStmt     = "INSERT INTO families (name) VALUES (?)"
	familyTimestampsStmt = "SELECT created_at, updated_at FROM families WHERE id=?"
	userInsertStmt       = "INSERT INTO users (email, password_hash, display_name, family_id, tier) VALUES (?,?,?,?,?)"
	refreshInsertStmt    = "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4, // minimum cost keeps the test fast
	}
	h := NewAuthHandler(cfg,
		repository.NewUserRepo(db),
		repository.NewFamilyRepo(db),
		repository.NewTokenRepo(db))
	return h, mock
}

func registerContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// A registration that creates a family but then hits a duplicate
// email must roll the family insert back too: no memberless family
// row may remain after the 409.
func TestRegisterDuplicateEmailRollsBackFamily(t *testing.T) {
	h, mock := newAuthHandler(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(familyInsertStmt)).
		WithArgs("Vance").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta(familyTimestampsStmt)).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta(userInsertStmt)).
		WithArgs("dana@example.com", sqlmock.AnyArg(), "Dana", uint64(5), uint8(1)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'dana@example.com' for key 'users.email'"))
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]interface{}{
		"email":        "dana@example.com",
		"password":     "hunter22",
		"display_name": "Dana",
		"family_name":  "Vance",
	})
	c, rec := registerContext(string(body))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusConflict, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("transaction not rolled back: %v", err)
	}
}

func TestRegisterCreatesFamilyAndUserAtomically(t *testing.T) {
	h, mock := newAuthHandler(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(familyInsertStmt)).
		WithArgs("Vance").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta(familyTimestampsStmt)).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta(userInsertStmt)).
		WithArgs("dana@example.com", sqlmock.AnyArg(), "Dana", uint64(5), uint8(1)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta(refreshInsertStmt)).
		WithArgs(uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	body, _ := json.Marshal(map[string]interface{}{
		"email":        "dana@example.com",
		"password":     "hunter22",
		"display_name": "Dana",
		"family_name":  "Vance",
	})
	c, rec := registerContext(string(body))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.User.ID != 7 || resp.User.Tier != 1 || resp.User.FamilyID == nil || *resp.User.FamilyID != 5 {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
	if resp.Access.Token == "" || resp.Refresh.Token == "" {
		t.Fatal("token pair missing from response")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
