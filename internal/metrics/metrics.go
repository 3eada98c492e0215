// Package metrics registers the Prometheus collectors of the booking API on
// the default registry. They are served at GET /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Bookings
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of bookings created",
		},
		[]string{"restaurant"},
	)

	BookingsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Total number of bookings cancelled by guests",
		},
	)

	BookingStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_status_changes_total",
			Help: "Total number of booking status transitions",
		},
		[]string{"from", "to"},
	)

	AvailabilitySearches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "availability_searches_total",
			Help: "Total number of availability lookups",
		},
	)

	ReferenceCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_reference_collisions_total",
			Help: "Drawn booking references that were already taken",
		},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_events_published_total",
			Help: "Booking events handed to the broker, by result",
		},
		[]string{"type", "result"},
	)
)

// RecordAPIRequest records one HTTP request. route is the registered
// pattern, not the raw path, to keep label cardinality bounded.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordStatusChange(from, to string) {
	BookingStatusChanges.WithLabelValues(from, to).Inc()
}

func RecordEventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(eventType, result).Inc()
}
