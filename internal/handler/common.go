// Package handler defines the HTTP handlers.  Handlers translate
// requests into repository and service calls and map the returned
// errors onto status codes; the admission rules themselves live in
// the service package.
package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/service"
)

var errNoIdentity = errors.New("missing identity in context")

// getUserID extracts the authenticated user id stored by the JWT
// middleware.
func getUserID(c echo.Context) (uint64, error) {
	if v, ok := c.Get("user_id").(uint64); ok && v != 0 {
		return v, nil
	}
	return 0, errNoIdentity
}

// getRequester assembles the admission-core identity (user, family,
// tier) from the context.  Requests from users without a family are
// rejected upstream by the RequireFamily middleware, so a zero
// family id here means broken middleware wiring, not user error.
func getRequester(c echo.Context) (service.Requester, error) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return service.Requester{}, errNoIdentity
	}
	fam, ok := c.Get("family_id").(uint64)
	if !ok || fam == 0 {
		return service.Requester{}, errNoIdentity
	}
	tier, ok := c.Get("tier").(uint8)
	if !ok {
		return service.Requester{}, errNoIdentity
	}
	return service.Requester{UserID: uid, FamilyID: fam, Tier: tier}, nil
}
