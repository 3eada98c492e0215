package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/logging"
	"github.com/iliyamo/restaurant-booking/internal/queue"
	"github.com/iliyamo/restaurant-booking/internal/repository"
	"github.com/iliyamo/restaurant-booking/internal/router"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

const version = "1.0.0"

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "restaurant-booking"})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	ctx := log.WithContext(context.Background())

	db, err := database.Open(database.Options{
		Driver:  cfg.DBDriver,
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		SSLMode: cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	if cfg.SeedOnStart {
		if err := database.Seed(ctx, db, database.SeedOptions{Days: cfg.SeedDays}); err != nil {
			log.Fatal().Err(err).Msg("seed")
		}
	}

	rdb := connectRedis(ctx, log)
	if rdb != nil {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.Discard{}
	if cfg.EventsEnabled {
		events = queue.NewAMQPPublisher(cfg.RabbitMQURL)
	}
	defer events.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	slots := repository.NewSlotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	reviewRepo := repository.NewReviewRepo(db)

	auth := service.NewAuthService(service.AuthConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost: cfg.BcryptCost,
	}, db, users, tokens)
	bookings := service.NewBookingService(service.BookingDeps{
		Tx:          db,
		Restaurants: restaurants,
		Slots:       slots,
		Bookings:    bookingRepo,
		Reasons:     repository.NewCancellationReasonRepo(db),
		Reviews:     reviewRepo,
		Customers:   service.NewCustomerService(repository.NewCustomerRepo(db)),
		References:  service.NewReferenceAllocator(cfg.ReferenceMaxAttempts),
		Events:      events,
		Ceiling:     cfg.SlotBookingCeiling,
	})

	e := router.New(router.Deps{
		Log:           log,
		Version:       version,
		Redis:         rdb,
		Cache:         config.LoadCacheConfig(),
		RateLimit:     config.LoadRateLimitConfig(),
		AuthRateLimit: config.LoadAuthRateLimitConfig(),
		DB:            db,
		Auth:          auth,
		Profiles:      service.NewProfileService(db, users, tokens),
		Restaurants:   service.NewRestaurantService(restaurants, reviewRepo),
		Availability:  service.NewAvailabilityService(restaurants, slots, bookingRepo, cfg.SlotBookingCeiling),
		Bookings:      bookings,
		Reviews:       service.NewReviewService(db, restaurants, bookingRepo, reviewRepo),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server exited")
}

// connectRedis returns nil when Redis is unreachable; the cache and rate
// limiter then pass requests through.
func connectRedis(ctx context.Context, log zerolog.Logger) *redis.Client {
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, cache and rate limiting disabled")
		return nil
	}
	return rdb
}
