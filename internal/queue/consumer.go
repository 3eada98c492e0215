// Package queue carries booking lifecycle events over RabbitMQ: the
// publisher used by the booking service and the consumer that appends
// each event to logs/booking.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Consumer reads booking events from QueueName and writes one JSON line
// per event to Sink.
type Consumer struct {
	URL  string
	Sink io.Writer
	Log  zerolog.Logger
}

// OpenLogFile opens (creating if needed) the append-only event log at path.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir logs: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Run connects to the broker and consumes until ctx is cancelled. Lost
// connections are re-dialled with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	sink := zerolog.New(c.Sink).With().Timestamp().Logger()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("booking-consumer: dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn, sink)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn().Err(err).Msg("booking-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, sink zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn().Err(err).Msg("booking-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Log.Info().Str("queue", QueueName).Msg("booking-consumer: consuming")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(sink, d.Body); err != nil {
				c.Log.Error().Err(err).Msg("booking-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes body as a BookingEvent and writes it to sink.
func HandleMessage(sink zerolog.Logger, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.BookingReference == "" {
		return errors.New("event missing type or booking_reference")
	}
	e := sink.Info().
		Str("event", ev.Type).
		Str("booking_reference", ev.BookingReference).
		Uint64("booking_id", ev.BookingID).
		Uint64("user_id", ev.UserID).
		Str("restaurant", ev.RestaurantName).
		Str("visit_date", ev.VisitDate).
		Str("visit_time", ev.VisitTime).
		Int("party_size", ev.PartySize).
		Str("status", ev.Status).
		Time("occurred_at", ev.OccurredAt)
	if ev.OldStatus != "" {
		e = e.Str("old_status", ev.OldStatus)
	}
	e.Msg("booking event")
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
