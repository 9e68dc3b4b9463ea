package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"venuebook/docs"
	"venuebook/internal/auth"
	"venuebook/internal/cache"
	"venuebook/internal/config"
	"venuebook/internal/db"
	"venuebook/internal/handler"
	"venuebook/internal/logger"
	"venuebook/internal/metrics"
	"venuebook/internal/middleware"
	"venuebook/internal/mq"
	"venuebook/internal/repository"
	"venuebook/internal/router"
	"venuebook/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Venue Booking API
// @version 1.0
// @description Venue booking API with conflict-checked bookings, venue and user administration, and booking analytics.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.FromContext(context.Background()).Error("config", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return err
	}

	cacheClient := cache.New(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unreachable, running without cache", "addr", cfg.RedisAddr, "error", err)
	}

	events, err := mq.Connect(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Warn("rabbitmq unreachable, booking events disabled", "error", err)
		events = mq.NopPublisher{}
	}
	defer events.Close()

	m := metrics.New()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	venueRepo := repository.NewVenueRepository(gormDB)
	bookingRepo := repository.NewBookingRepository(gormDB)
	bookingLogRepo := repository.NewBookingLogRepository(gormDB)
	improvementRepo := repository.NewImprovementRepository(gormDB)
	analyticsRepo := repository.NewAnalyticsRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// The attempt log outlives the signal context so requests drained by
	// e.Shutdown still get their entries written.
	attemptsCtx, stopAttempts := context.WithCancel(context.Background())
	defer stopAttempts()
	attempts := service.NewAttemptLogger(bookingLogRepo, log.With("component", "booking-log"))
	go attempts.Run(attemptsCtx)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, log)
	bookingService := service.NewBookingService(service.BookingDeps{
		Bookings: bookingRepo,
		Logs:     bookingLogRepo,
		Attempts: attempts,
		Events:   events,
		Metrics:  m,
		Logger:   log,
	})
	venueService := service.NewVenueService(venueRepo, cacheClient)
	userService := service.NewUserService(userRepo, cfg.AdminUsername)
	improvementService := service.NewImprovementService(improvementRepo)
	analyticsService := service.NewAnalyticsService(analyticsRepo, m)

	if err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	e := echo.New()
	router.Register(e, cfg, log, m,
		router.Handlers{
			Auth:        handler.NewAuthHandler(authService),
			Users:       handler.NewUserHandler(userService),
			Bookings:    handler.NewBookingHandler(bookingService),
			Venues:      handler.NewVenueHandler(venueService),
			Analytics:   handler.NewAnalyticsHandler(analyticsService),
			Improvement: handler.NewImprovementHandler(improvementService),
		},
		router.Middleware{
			Auth: middleware.JWT(jwtService, tokenStore),
			LoginLimit: middleware.RateLimit(
				middleware.NewLimiter(ctx, cacheClient.Redis(), cfg.LoginRateLimit, cfg.LoginRatePeriod, log),
				log,
			),
		},
	)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	log.Info("swagger documentation available", "path", "/swagger/index.html")

	addr := ":" + cfg.ServerPort
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		stopAttempts()
		<-attempts.Done()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	stopAttempts()
	<-attempts.Done()
	return nil
}
