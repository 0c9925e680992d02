package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/model"
	"github.com/jdvansice-cloud/reservepty-api/internal/queue"
	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
	"github.com/jdvansice-cloud/reservepty-api/internal/service"
)

// ReservationHandler exposes reservation creation, listing and
// cancellation.  Admission decisions are delegated to the service
// layer; this handler only binds, maps errors to status codes and
// publishes the confirmation event.
type ReservationHandler struct {
	Admission    *service.AdmissionService
	Reservations *repository.ReservationRepo
	Assets       *repository.AssetRepo

	// publish is swappable for tests; defaults to the RabbitMQ
	// publisher.
	publish func(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// NewReservationHandler constructs a ReservationHandler.  All
// dependencies must be non-nil.
func NewReservationHandler(admission *service.AdmissionService, reservations *repository.ReservationRepo, assets *repository.AssetRepo) *ReservationHandler {
	if admission == nil || reservations == nil || assets == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Admission:    admission,
		Reservations: reservations,
		Assets:       assets,
		publish:      queue.PublishReservationConfirmed,
	}
}

type reservationResp struct {
	ID        uint64    `json:"id"`
	AssetID   uint64    `json:"asset_id"`
	UserID    uint64    `json:"user_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:        r.ID,
		AssetID:   r.AssetID,
		UserID:    r.UserID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Status:    r.Status,
		Notes:     r.Notes,
	}
}

// Create handles POST /v1/reservations.  Responses follow the
// admission taxonomy: 404 when the asset is not in the caller's
// family, 409 on a schedule conflict, 403 when the start exceeds the
// tier's booking horizon, 400 on an inverted interval, 201 with the
// confirmed reservation otherwise.
func (h *ReservationHandler) Create(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		AssetID   uint64    `json:"asset_id"`
		StartDate time.Time `json:"start_date"`
		EndDate   time.Time `json:"end_date"`
		Notes     *string   `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.AssetID == 0 || body.StartDate.IsZero() || body.EndDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "asset_id, start_date and end_date are required"})
	}
	if body.Notes != nil {
		n := strings.TrimSpace(*body.Notes)
		if n == "" {
			body.Notes = nil
		} else {
			body.Notes = &n
		}
	}

	rec, err := h.Admission.CreateReservation(c.Request().Context(), req, service.ReservationRequest{
		AssetID:   body.AssetID,
		StartDate: body.StartDate,
		EndDate:   body.EndDate,
		Notes:     body.Notes,
	})
	if err != nil {
		var he *service.HorizonError
		switch {
		case errors.Is(err, service.ErrInvalidInterval):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrAssetNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "asset not found"})
		case errors.Is(err, service.ErrScheduleConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "asset is already reserved for this period"})
		case errors.As(err, &he):
			return c.JSON(http.StatusForbidden, echo.Map{"error": he.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
		}
	}

	h.publishConfirmed(req, rec)
	return c.JSON(http.StatusCreated, echo.Map{"item": toReservationResp(rec)})
}

// publishConfirmed emits the reservation.confirmed event without
// blocking the response; the reservation is already committed, so a
// broker failure is only logged by the publisher.
func (h *ReservationHandler) publishConfirmed(req service.Requester, rec *model.Reservation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ev := queue.ReservationConfirmedEvent{
			ReservationID: rec.ID,
			AssetID:       rec.AssetID,
			FamilyID:      req.FamilyID,
			UserID:        rec.UserID,
			StartDate:     rec.StartDate.UTC().Format(time.RFC3339),
			EndDate:       rec.EndDate.UTC().Format(time.RFC3339),
			Notes:         rec.Notes,
			ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		// decoration is best effort: an undecorated event still names
		// the asset by id
		if asset, err := h.Assets.GetByIDAndFamily(ctx, rec.AssetID, req.FamilyID); err == nil {
			ev.AssetName, ev.AssetType = asset.Name, asset.Type
		}
		_ = h.publish(ctx, ev)
	}()
}

// ListMine handles GET /v1/reservations and returns the caller's own
// reservations with asset details, newest first.  The status field
// is the live-derived one.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	deriveStatuses(details)
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// Get handles GET /v1/reservations/:id for the reservation's
// creating user.
func (h *ReservationHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	rec, err := h.Reservations.GetByIDForUser(c.Request().Context(), id, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	resp := toReservationResp(rec)
	resp.Status = rec.EffectiveStatus(time.Now().UTC())
	return c.JSON(http.StatusOK, echo.Map{"item": resp})
}

// Cancel handles DELETE /v1/reservations/:id.  Only the creating
// user may cancel; anyone else sees 404.  Cancelling twice is a
// no-op returning the unchanged row.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	rec, err := h.Admission.CancelReservation(c.Request().Context(), uid, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toReservationResp(rec)})
}

// ListByAsset handles GET /v1/assets/:id/reservations: the full
// schedule of one family asset, visible to every family member.
func (h *ReservationHandler) ListByAsset(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset id"})
	}
	details, err := h.Reservations.ListByAssetForFamily(c.Request().Context(), id, req.FamilyID)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "asset not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	deriveStatuses(details)
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// deriveStatuses replaces stored statuses with the live-derived ones
// for display.
func deriveStatuses(details []repository.ReservationDetail) {
	now := time.Now().UTC()
	for i := range details {
		r := model.Reservation{StartDate: details[i].StartDate, EndDate: details[i].EndDate, Status: details[i].Status}
		details[i].Status = r.EffectiveStatus(now)
	}
}
