package main

import (
	"context"
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"venuebook/internal/auth"
	"venuebook/internal/cache"
	"venuebook/internal/config"
	"venuebook/internal/db"
	"venuebook/internal/errors"
	"venuebook/internal/logger"
	"venuebook/internal/repository"
	"venuebook/internal/service"
)

//go:embed venues.json
var defaultVenues []byte

// SeedVenue is one entry of the bundled venue list.
type SeedVenue struct {
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"`
	HasProjector bool   `json:"hasProjector"`
	HasSpeaker   bool   `json:"hasSpeaker"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.FromContext(context.Background()).Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	if err := seed(context.Background(), cfg, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	log.Info("starting seed")

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return err
	}
	log.Info("database migrations completed")

	// The server keeps the venue list cached; adding through the service
	// drops that entry so new venues show up immediately.
	cacheClient := cache.New(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	defer cacheClient.Close()

	authService := service.NewAuthService(
		repository.NewUserRepository(gormDB),
		auth.NewJWTService(cfg.JWTSecret),
		auth.NewTokenStore(cacheClient),
		log,
	)
	if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	log.Info("admin account ready", "username", cfg.AdminUsername)

	var venues []SeedVenue
	if err := json.Unmarshal(defaultVenues, &venues); err != nil {
		return fmt.Errorf("decode bundled venues: %w", err)
	}

	venueService := service.NewVenueService(repository.NewVenueRepository(gormDB), cacheClient)
	created, skipped := 0, 0
	for _, v := range venues {
		_, err := venueService.AddVenue(ctx, service.VenueInput{
			Name:         v.Name,
			Capacity:     v.Capacity,
			HasProjector: v.HasProjector,
			HasSpeaker:   v.HasSpeaker,
		})
		switch {
		case err == nil:
			created++
		case stderrors.Is(err, errors.ErrVenueExists):
			skipped++
		default:
			return fmt.Errorf("add venue %q: %w", v.Name, err)
		}
	}

	log.Info("seed completed", "venues_created", created, "venues_skipped", skipped)
	return nil
}
