package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
)

// CalendarHandler serves the family-wide schedule view and the
// per-asset usage statistics.
type CalendarHandler struct {
	Reservations *repository.ReservationRepo
}

// Calendar handles GET /v1/calendar?from=&to=.  It returns every
// reservation across the family's assets overlapping [from, to].
// Both bounds are required RFC 3339 timestamps; the window itself
// may not be inverted.
func (h *CalendarHandler) Calendar(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be an RFC 3339 timestamp"})
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must be an RFC 3339 timestamp"})
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not precede from"})
	}
	details, err := h.Reservations.ListForFamilyBetween(c.Request().Context(), req.FamilyID, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load calendar"})
	}
	deriveStatuses(details)
	return c.JSON(http.StatusOK, echo.Map{
		"from":  from,
		"to":    to,
		"items": details,
	})
}

// Stats handles GET /v1/stats: reservation counts per asset grouped
// by stored status, for the whole family.
func (h *CalendarHandler) Stats(c echo.Context) error {
	req, err := getRequester(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	stats, err := h.Reservations.StatsByFamily(c.Request().Context(), req.FamilyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": stats})
}
