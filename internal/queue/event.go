// Package queue carries booking lifecycle events over RabbitMQ: the
// payload type, the publisher used by the API and the consumer run by
// cmd/consumer.
package queue

import (
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// QueueName is the durable queue booking events are published to.
const QueueName = "booking.events"

const (
	EventBookingCreated       = "booking.created"
	EventBookingUpdated       = "booking.updated"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent is published after a booking change commits. It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type BookingEvent struct {
	Type             string    `json:"type"`
	BookingReference string    `json:"booking_reference"`
	BookingID        uint64    `json:"booking_id"`
	RestaurantID     uint64    `json:"restaurant_id"`
	RestaurantName   string    `json:"restaurant_name"`
	UserID           uint64    `json:"user_id"`
	VisitDate        string    `json:"visit_date"`
	VisitTime        string    `json:"visit_time"`
	PartySize        int       `json:"party_size"`
	Status           string    `json:"status"`
	OldStatus        string    `json:"old_status,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewBookingEvent builds an event of type typ from b.
func NewBookingEvent(typ string, b model.BookingDetail, at time.Time) BookingEvent {
	return BookingEvent{
		Type:             typ,
		BookingReference: b.Reference,
		BookingID:        b.ID,
		RestaurantID:     b.RestaurantID,
		RestaurantName:   b.RestaurantName,
		UserID:           b.UserID,
		VisitDate:        b.VisitDate.String(),
		VisitTime:        b.VisitTime.String(),
		PartySize:        b.PartySize,
		Status:           string(b.Status),
		OccurredAt:       at.UTC(),
	}
}
