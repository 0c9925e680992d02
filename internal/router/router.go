// Package router wires handlers and middleware onto the Echo
// instance.  Route registration is kept separate from handler logic
// so the full HTTP surface is readable in one place.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jdvansice-cloud/reservepty-api/internal/config"
	"github.com/jdvansice-cloud/reservepty-api/internal/handler"
	"github.com/jdvansice-cloud/reservepty-api/internal/middleware"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth         *handler.AuthHandler
	Assets       *handler.AssetHandler
	Reservations *handler.ReservationHandler
	Calendar     *handler.CalendarHandler
	Lookups      *handler.LookupHandler
}

// Register mounts the whole API surface.
//
// Unauthenticated: /healthz plus the /v1/auth group.  Everything
// else requires a valid access token, and the family-scoped routes
// additionally require family membership.  Asset mutations are
// restricted to tiers 1 and 2.  The lookup tables sit behind the
// Redis response cache since they never change.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	rl := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	e.Use(rl)

	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(cfg.JWTSecret))
	v1.GET("/me", h.Auth.Me)
	v1.POST("/auth/logout-all", h.Auth.LogoutAll)

	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
	v1.GET("/lookups/airports", h.Lookups.Airports, cache)
	v1.GET("/lookups/ports", h.Lookups.Ports, cache)

	fam := v1.Group("")
	fam.Use(middleware.RequireFamily())

	manage := middleware.RequireTier(2)
	fam.POST("/assets", h.Assets.Create, manage)
	fam.GET("/assets", h.Assets.List)
	fam.GET("/assets/:id", h.Assets.Get)
	fam.DELETE("/assets/:id", h.Assets.Delete, manage)
	fam.GET("/assets/:id/reservations", h.Reservations.ListByAsset)

	fam.POST("/reservations", h.Reservations.Create)
	fam.GET("/reservations", h.Reservations.ListMine)
	fam.GET("/reservations/:id", h.Reservations.Get)
	fam.DELETE("/reservations/:id", h.Reservations.Cancel)

	fam.GET("/calendar", h.Calendar.Calendar)
	fam.GET("/stats", h.Calendar.Stats)
}
