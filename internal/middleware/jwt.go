// Package middleware provides shared request processing for the
// handlers: bearer-token authentication, tier gating, rate limiting
// and response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the resolved identity into the request context
// under the keys "user_id" (uint64), "family_id" (uint64) and "tier"
// (uint8).  The provided secret must match the one used when issuing
// tokens.  Handlers behind this middleware read the identity via the
// handler package's context helpers.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 only; a token signed any other way is
			// rejected before the claims are inspected.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			sub, okSub := numericClaim(claims, "sub")
			fam, _ := numericClaim(claims, "fam")
			tier, okTier := numericClaim(claims, "tier")
			if !okSub || !okTier || sub == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set("user_id", sub)
			c.Set("family_id", fam)
			c.Set("tier", uint8(tier))
			return next(c)
		}
	}
}

// numericClaim reads a claim that the issuer wrote as a number.  JWT
// decoding yields float64 for all JSON numbers; string values are
// tolerated for tokens minted by older builds.
func numericClaim(claims jwt.MapClaims, key string) (uint64, bool) {
	switch v := claims[key].(type) {
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case string:
		var n uint64
		for _, ch := range v {
			if ch < '0' || ch > '9' {
				return 0, false
			}
			n = n*10 + uint64(ch-'0')
		}
		return n, v != ""
	}
	return 0, false
}
