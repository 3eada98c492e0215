package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/metrics"
)

// Publisher hands booking events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
	Close() error
}

// Discard drops every event. It is used when EVENTS_ENABLED is false and
// in tests.
type Discard struct{}

func (Discard) Publish(context.Context, BookingEvent) error { return nil }
func (Discard) Close() error                                { return nil }

// AMQPPublisher publishes persistent JSON messages to QueueName on the
// default exchange. The connection is opened lazily and re-dialled after
// a failure.
type AMQPPublisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("dial broker: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// Publish sends ev. Errors are returned for the caller to log; they never
// abort the request that produced the event.
func (p *AMQPPublisher) Publish(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err == nil {
		err = ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         ev.Type,
			Body:         body,
		})
	}
	metrics.RecordEventPublished(ev.Type, err)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", ev.Type).Str("booking_reference", ev.BookingReference).
			Msg("publish booking event failed")
	}
	return err
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
