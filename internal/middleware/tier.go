package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireTier returns a middleware that only admits users whose tier
// is at or above the given privilege level.  Tier 1 is the highest
// privilege, so "at or above maxTier" means tier <= maxTier
// numerically.  It assumes JWTAuth has already stored the tier in
// the context; a missing or malformed tier is rejected.
func RequireTier(maxTier uint8) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tier, ok := c.Get("tier").(uint8)
			if !ok || tier == 0 || tier > maxTier {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient tier"})
			}
			return next(c)
		}
	}
}

// RequireFamily rejects requests from users who have not joined a
// family.  Asset and reservation endpoints are meaningless without a
// family scope, so they sit behind this middleware.
func RequireFamily() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			fam, ok := c.Get("family_id").(uint64)
			if !ok || fam == 0 {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "no family membership"})
			}
			return next(c)
		}
	}
}
