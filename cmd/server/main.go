package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/jdvansice-cloud/reservepty-api/internal/config"
	"github.com/jdvansice-cloud/reservepty-api/internal/database"
	"github.com/jdvansice-cloud/reservepty-api/internal/handler"
	"github.com/jdvansice-cloud/reservepty-api/internal/queue"
	"github.com/jdvansice-cloud/reservepty-api/internal/repository"
	"github.com/jdvansice-cloud/reservepty-api/internal/router"
	"github.com/jdvansice-cloud/reservepty-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient() // nil disables rate limiting and caching

	users := repository.NewUserRepo(db)
	families := repository.NewFamilyRepo(db)
	tokens := repository.NewTokenRepo(db)
	assets := repository.NewAssetRepo(db)
	reservations := repository.NewReservationRepo(db)

	admission := service.NewAdmissionService(db, assets, reservations)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, families, tokens),
		Assets:       handler.NewAssetHandler(assets),
		Reservations: handler.NewReservationHandler(admission, reservations, assets),
		Calendar:     &handler.CalendarHandler{Reservations: reservations},
		Lookups:      &handler.LookupHandler{},
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, h, rdb)

	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
