package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
	"github.com/jdvansice-cloud/reservepty-api/internal/queue"
	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
	"github.com/jdvansice-cloud/reservepty-api/internal/service"
)

const (
	assetQuery      = "SELECT id, family_id, name, type, metadata, created_at, updated_at FROM assets WHERE id=? AND family_id=? LIMIT 1"
	overlapQuery    = "SELECT id, asset_id, user_id, start_date, end_date, status, notes, created_at, updated_at FROM reservations WHERE asset_id=? AND status<>'cancelled' AND start_date<=? AND ?<=end_date FOR UPDATE"
	insertQuery     = "INSERT INTO reservations (asset_id, user_id, start_date, end_date, status, notes) VALUES (?,?,?,?,?,?)"
	timestampsQuery = "SELECT created_at, updated_at FROM reservations WHERE id=?"
	getForUserQuery = "SELECT id, asset_id, user_id, start_date, end_date, status, notes, created_at, updated_at FROM reservations WHERE id=? AND user_id=? LIMIT 1"
)

func newTestHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	assets := repository.NewAssetRepo(db)
	reservations := repository.NewReservationRepo(db)
	h := NewReservationHandler(service.NewAdmissionService(db, assets, reservations), reservations, assets)
	return h, mock
}

// newAuthedContext builds an echo context carrying the identity keys
// the JWT middleware would set.
func newAuthedContext(method, target, body string, userID, familyID uint64, tier uint8) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("family_id", familyID)
	c.Set("tier", tier)
	return c, rec
}

func assetRow(id, familyID uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "family_id", "name", "type", "metadata", "created_at", "updated_at"}).
		AddRow(id, familyID, "Lake House", "home", nil, now, now)
}

func emptyOverlap() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "asset_id", "user_id", "start_date", "end_date", "status", "notes", "created_at", "updated_at"})
}

func TestCreateReservationCreated(t *testing.T) {
	h, mock := newTestHandler(t)

	published := make(chan queue.ReservationConfirmedEvent, 1)
	h.publish = func(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
		published <- ev
		return nil
	}

	start := time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(time.Second)
	end := start.Add(48 * time.Hour)
	dbNow := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(assetQuery)).WithArgs(uint64(11), uint64(3)).WillReturnRows(assetRow(11, 3))
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).WithArgs(uint64(11), end, start).WillReturnRows(emptyOverlap())
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(uint64(11), uint64(7), start, end, model.StatusConfirmed, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(timestampsQuery)).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(dbNow, dbNow))
	mock.ExpectCommit()
	// asset details for the broker event
	mock.ExpectQuery(regexp.QuoteMeta(assetQuery)).WithArgs(uint64(11), uint64(3)).WillReturnRows(assetRow(11, 3))

	body, _ := json.Marshal(map[string]interface{}{
		"asset_id":   11,
		"start_date": start.Format(time.RFC3339),
		"end_date":   end.Format(time.RFC3339),
	})
	c, rec := newAuthedContext(http.MethodPost, "/v1/reservations", string(body), 7, 3, 1)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Item reservationResp `json:"item"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Item.ID != 42 || resp.Item.AssetID != 11 || resp.Item.UserID != 7 {
		t.Fatalf("unexpected item: %+v", resp.Item)
	}
	if resp.Item.Status != model.StatusConfirmed {
		t.Fatalf("status = %q, want %q", resp.Item.Status, model.StatusConfirmed)
	}

	select {
	case ev := <-published:
		if ev.ReservationID != 42 || ev.AssetName != "Lake House" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation event was not published")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A failing asset lookup during event decoration must neither delay
// nor fail the 201: the event still goes out, naming the asset by id
// only.
func TestCreateReservationEventSurvivesDecorationFailure(t *testing.T) {
	h, mock := newTestHandler(t)

	published := make(chan queue.ReservationConfirmedEvent, 1)
	h.publish = func(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
		published <- ev
		return nil
	}

	start := time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(time.Second)
	end := start.Add(48 * time.Hour)
	dbNow := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(assetQuery)).WithArgs(uint64(11), uint64(3)).WillReturnRows(assetRow(11, 3))
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).WithArgs(uint64(11), end, start).WillReturnRows(emptyOverlap())
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(uint64(11), uint64(7), start, end, model.StatusConfirmed, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(timestampsQuery)).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(dbNow, dbNow))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(assetQuery)).WithArgs(uint64(11), uint64(3)).
		WillReturnError(sql.ErrConnDone)

	body, _ := json.Marshal(map[string]interface{}{
		"asset_id":   11,
		"start_date": start.Format(time.RFC3339),
		"end_date":   end.Format(time.RFC3339),
	})
	c, rec := newAuthedContext(http.MethodPost, "/v1/reservations", string(body), 7, 3, 1)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	select {
	case ev := <-published:
		if ev.ReservationID != 42 || ev.AssetID != 11 {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.AssetName != "" || ev.AssetType != "" {
			t.Fatalf("decoration should be empty after lookup failure: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation event was not published")
	}
}

func TestCreateReservationConflict(t *testing.T) {
	h, mock := newTestHandler(t)
	h.publish = func(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
		t.Error("publish called for a rejected reservation")
		return nil
	}

	start := time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(time.Second)
	end := start.Add(48 * time.Hour)
	dbNow := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(assetQuery)).WithArgs(uint64(11), uint64(3)).WillReturnRows(assetRow(11, 3))
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).WithArgs(uint64(11), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"id", "asset_id", "user_id", "start_date", "end_date", "status", "notes", "created_at", "updated_at"}).
			AddRow(9, 11, 8, start.Add(-24*time.Hour), start.Add(24*time.Hour), model.StatusConfirmed, nil, dbNow, dbNow))
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]interface{}{
		"asset_id":   11,
		"start_date": start.Format(time.RFC3339),
		"end_date":   end.Format(time.RFC3339),
	})
	c, rec := newAuthedContext(http.MethodPost, "/v1/reservations", string(body), 7, 3, 1)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusConflict, rec.Body.String())
	}
}

func TestCreateReservationForeignAsset(t *testing.T) {
	h, mock := newTestHandler(t)

	start := time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(time.Second)
	end := start.Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(assetQuery)).WithArgs(uint64(11), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "family_id", "name", "type", "metadata", "created_at", "updated_at"}))
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]interface{}{
		"asset_id":   11,
		"start_date": start.Format(time.RFC3339),
		"end_date":   end.Format(time.RFC3339),
	})
	c, rec := newAuthedContext(http.MethodPost, "/v1/reservations", string(body), 7, 3, 1)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusNotFound, rec.Body.String())
	}
}

func TestCreateReservationBeyondHorizon(t *testing.T) {
	h, mock := newTestHandler(t)

	// tier 4 callers may book at most 30 days ahead
	start := time.Now().UTC().Add(45 * 24 * time.Hour).Truncate(time.Second)
	end := start.Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(assetQuery)).WithArgs(uint64(11), uint64(3)).WillReturnRows(assetRow(11, 3))
	mock.ExpectQuery(regexp.QuoteMeta(overlapQuery)).WithArgs(uint64(11), end, start).WillReturnRows(emptyOverlap())
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]interface{}{
		"asset_id":   11,
		"start_date": start.Format(time.RFC3339),
		"end_date":   end.Format(time.RFC3339),
	})
	c, rec := newAuthedContext(http.MethodPost, "/v1/reservations", string(body), 7, 3, 4)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusForbidden, rec.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !strings.Contains(resp.Error, "30 days") {
		t.Fatalf("error message %q does not name the tier limit", resp.Error)
	}
}

func TestCreateReservationInvertedInterval(t *testing.T) {
	h, _ := newTestHandler(t)

	start := time.Now().UTC().Add(10 * 24 * time.Hour).Truncate(time.Second)
	body, _ := json.Marshal(map[string]interface{}{
		"asset_id":   11,
		"start_date": start.Format(time.RFC3339),
		"end_date":   start.Add(-24 * time.Hour).Format(time.RFC3339),
	})
	c, rec := newAuthedContext(http.MethodPost, "/v1/reservations", string(body), 7, 3, 1)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestCancelReservationNotFound(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(getForUserQuery)).WithArgs(uint64(99), uint64(7)).
		WillReturnError(sql.ErrNoRows)

	c, rec := newAuthedContext(http.MethodDelete, "/v1/reservations/99", "", 7, 3, 1)
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusNotFound, rec.Body.String())
	}
}

func TestCancelReservation(t *testing.T) {
	h, mock := newTestHandler(t)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(getForUserQuery)).WithArgs(uint64(42), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "asset_id", "user_id", "start_date", "end_date", "status", "notes", "created_at", "updated_at"}).
			AddRow(42, 11, 7, now.Add(24*time.Hour), now.Add(72*time.Hour), model.StatusConfirmed, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status=? WHERE id=?")).
		WithArgs(model.StatusCancelled, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newAuthedContext(http.MethodDelete, "/v1/reservations/42", "", 7, 3, 1)
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.Cancel(c); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Item reservationResp `json:"item"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Item.Status != model.StatusCancelled {
		t.Fatalf("status = %q, want %q", resp.Item.Status, model.StatusCancelled)
	}
}
