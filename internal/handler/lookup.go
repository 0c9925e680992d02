package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/lookup"
)

// LookupHandler serves the static reference tables.  These routes
// sit behind the response cache since the data never changes within
// a process lifetime.
type LookupHandler struct{}

// Airports handles GET /v1/lookups/airports.
func (h *LookupHandler) Airports(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": lookup.Airports()})
}

// Ports handles GET /v1/lookups/ports.
func (h *LookupHandler) Ports(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": lookup.Ports()})
}
