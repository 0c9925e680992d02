// Package service contains the reservation admission core: the
// rules that decide whether a new reservation may be created given
// existing bookings, asset ownership and the requester's tier.  The
// HTTP layer translates requests into calls on AdmissionService and
// maps the returned errors onto status codes; no admission rule
// lives in a handler.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
	"github.com/jdvansice-cloud/reservepty-api/internal/policy"
	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
)

// ErrInvalidInterval is returned when a proposed reservation has
// start_date >= end_date.  Inverted intervals are rejected before
// any datastore work.
var ErrInvalidInterval = errors.New("start_date must be earlier than end_date")

// ErrScheduleConflict is returned when the proposed interval
// overlaps a non-cancelled reservation on the same asset.
var ErrScheduleConflict = errors.New("asset is already reserved for an overlapping interval")

// HorizonError reports a booking attempt beyond the requester
// tier's advance-booking window.  Handlers expose the tier and
// limit in the response message.
type HorizonError struct {
	Tier      uint8
	LimitDays int
	DaysAhead int
}

func (e *HorizonError) Error() string {
	return fmt.Sprintf("tier %d may book at most %d days in advance (requested %d)", e.Tier, e.LimitDays, e.DaysAhead)
}

// Requester identifies the authenticated user on whose behalf an
// admission decision is made, as resolved by the identity layer.
type Requester struct {
	UserID   uint64
	FamilyID uint64
	Tier     uint8
}

// ReservationRequest is a proposed reservation before admission.
type ReservationRequest struct {
	AssetID   uint64
	StartDate time.Time
	EndDate   time.Time
	Notes     *string
}

// AdmissionService validates proposed reservations and persists the
// admitted ones.  It owns no mutable state beyond the database
// handle; concurrent admissions for the same asset serialize on the
// row locks taken by the overlap query.
type AdmissionService struct {
	db           *sql.DB
	assets       *repository.AssetRepo
	reservations *repository.ReservationRepo

	// now is swappable for tests.
	now func() time.Time
}

// NewAdmissionService constructs an AdmissionService.  All
// dependencies must be non-nil.
func NewAdmissionService(db *sql.DB, assets *repository.AssetRepo, reservations *repository.ReservationRepo) *AdmissionService {
	if db == nil || assets == nil || reservations == nil {
		panic("nil dependency passed to NewAdmissionService")
	}
	return &AdmissionService{
		db:           db,
		assets:       assets,
		reservations: reservations,
		now:          time.Now,
	}
}

// CreateReservation runs the admission checks in order and, when all
// pass, persists a confirmed reservation.  The checks are:
//
//  1. ownership – the asset must belong to the requester's family;
//     a missing asset and a foreign asset both yield
//     repository.ErrAssetNotFound.
//  2. conflict – no non-cancelled reservation on the asset may
//     overlap the proposed interval under inclusive-endpoint
//     semantics; a match yields ErrScheduleConflict.
//  3. tier horizon – the start must lie within the tier's
//     advance-booking window; otherwise a *HorizonError.
//
// All three checks and the insert run inside one transaction, with
// the overlap query locking the asset's reservation rows, so two
// concurrent admissions for overlapping intervals cannot both
// commit.  On any failure the transaction rolls back and nothing is
// written.
func (s *AdmissionService) CreateReservation(ctx context.Context, req Requester, in ReservationRequest) (*model.Reservation, error) {
	if !in.StartDate.Before(in.EndDate) {
		return nil, ErrInvalidInterval
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.assets.GetByIDAndFamilyTx(ctx, tx, in.AssetID, req.FamilyID); err != nil {
		return nil, err
	}

	overlapping, err := s.reservations.FindOverlappingTx(ctx, tx, in.AssetID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, ErrScheduleConflict
	}

	if daysAhead, limit, ok := policy.CheckHorizon(req.Tier, in.StartDate, s.now().UTC()); !ok {
		return nil, &HorizonError{Tier: req.Tier, LimitDays: limit, DaysAhead: daysAhead}
	}

	rec := &model.Reservation{
		AssetID:   in.AssetID,
		UserID:    req.UserID,
		StartDate: in.StartDate.UTC(),
		EndDate:   in.EndDate.UTC(),
		Status:    model.StatusConfirmed,
		Notes:     in.Notes,
	}
	if err := s.reservations.CreateTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return rec, nil
}

// CancelReservation sets a reservation's status to cancelled.  Only
// the creating user may cancel; a reservation that does not exist
// and one owned by someone else are both reported as
// repository.ErrReservationNotFound.  Cancelling an
// already-cancelled reservation is a no-op that returns the row
// unchanged.  No interval or tier re-validation happens on cancel.
func (s *AdmissionService) CancelReservation(ctx context.Context, userID, reservationID uint64) (*model.Reservation, error) {
	rec, err := s.reservations.GetByIDForUser(ctx, reservationID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrReservationNotFound
		}
		return nil, err
	}
	if rec.Status == model.StatusCancelled {
		return rec, nil
	}
	if err := s.reservations.UpdateStatus(ctx, reservationID, model.StatusCancelled); err != nil {
		return nil, err
	}
	rec.Status = model.StatusCancelled
	return rec, nil
}
