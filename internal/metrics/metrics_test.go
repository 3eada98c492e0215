package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/restaurants", "200"))
	RecordAPIRequest("GET", "/api/restaurants", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/restaurants", "200"))
	if after != before+1 {
		t.Errorf("http_requests_total = %v, want %v", after, before+1)
	}
}

func TestRecordStatusChange(t *testing.T) {
	RecordStatusChange("confirmed", "completed")
	if got := testutil.ToFloat64(BookingStatusChanges.WithLabelValues("confirmed", "completed")); got < 1 {
		t.Errorf("booking_status_changes_total = %v", got)
	}
}

func TestRecordEventPublished(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("booking.created", "error"))
	RecordEventPublished("booking.created", errors.New("broker down"))
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("booking.created", "error")); got != before+1 {
		t.Errorf("booking_events_published_total{result=error} = %v, want %v", got, before+1)
	}
}
