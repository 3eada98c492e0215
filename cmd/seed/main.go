// Command seed creates the schema and loads the sample restaurants,
// cancellation reasons and availability slots. It is safe to rerun.
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadDatabase()
	days := flag.Int("days", cfg.SeedDays, "days of availability to generate")
	openRatio := flag.Float64("open-ratio", 0.85, "probability that a generated slot is open")
	flag.Parse()

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "seed"})
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
	if err := database.Seed(ctx, db, database.SeedOptions{Days: *days, OpenRatio: *openRatio}); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Int("days", *days).Msg("seed complete")
}
