// Command consumer appends every booking event published on the broker
// to a JSON-lines log file.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/logging"
	"github.com/iliyamo/restaurant-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadConsumer()
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "booking-consumer"})

	f, err := queue.OpenLogFile(cfg.EventLogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.EventLogPath).Msg("open event log")
	}
	defer f.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &queue.Consumer{URL: cfg.RabbitMQURL, Sink: f, Log: log}
	log.Info().Str("path", cfg.EventLogPath).Msg("booking-consumer: starting")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("booking-consumer: stopped")
		return
	}
	log.Info().Msg("booking-consumer: stopped")
}
