package model

import (
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusNoShow    BookingStatus = "no_show"
)

// AllStatuses lists every valid status in display order.
var AllStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}

var statusTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted, StatusNoShow},
}

// ParseBookingStatus maps user input onto a known status.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Cancelled, completed and no_show are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking records a table reservation made by a user at a restaurant for
// a given date, time and party size.
//
// Fields:
//  Reference            – unique 7-character public identifier.
//  CustomerID           – guest profile the booking was made under.
//  UserID               – account that owns the booking.
//  VisitDate/VisitTime  – when the party is expected.
//  ChannelCode          – booking channel, e.g. ONLINE.
//  IsLeaveTimeConfirmed – guest agreed to the table return time.
//  CancellationReasonID – set when the booking was cancelled.
type Booking struct {
	ID                   uint64        `db:"id" json:"id"`
	Reference            string        `db:"booking_reference" json:"booking_reference"`
	RestaurantID         uint64        `db:"restaurant_id" json:"restaurant_id"`
	CustomerID           uint64        `db:"customer_id" json:"customer_id"`
	UserID               uint64        `db:"user_id" json:"user_id"`
	VisitDate            Date          `db:"visit_date" json:"visit_date"`
	VisitTime            TimeOfDay     `db:"visit_time" json:"visit_time"`
	PartySize            int           `db:"party_size" json:"party_size"`
	ChannelCode          string        `db:"channel_code" json:"channel_code"`
	SpecialRequests      string        `db:"special_requests" json:"special_requests"`
	IsLeaveTimeConfirmed bool          `db:"is_leave_time_confirmed" json:"is_leave_time_confirmed"`
	RoomNumber           string        `db:"room_number" json:"room_number"`
	Status               BookingStatus `db:"status" json:"status"`
	CancellationReasonID *int64        `db:"cancellation_reason_id" json:"cancellation_reason_id"`
	CreatedAt            time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updated_at"`
}

// VisitAt returns the visit date and time as a UTC instant.
func (b Booking) VisitAt() time.Time { return b.VisitTime.On(b.VisitDate) }

// BookingDetail is a booking joined with the restaurant name and the
// guest details it was made under.
type BookingDetail struct {
	Booking
	RestaurantName string          `json:"restaurant"`
	Customer       CustomerSummary `json:"customer"`
}

// BookingUpdate carries the optional fields of a booking edit.
type BookingUpdate struct {
	VisitDate            *Date
	VisitTime            *TimeOfDay
	PartySize            *int
	SpecialRequests      *string
	IsLeaveTimeConfirmed *bool
}

// Empty reports whether the update touches nothing.
func (u BookingUpdate) Empty() bool {
	return u.VisitDate == nil && u.VisitTime == nil && u.PartySize == nil &&
		u.SpecialRequests == nil && u.IsLeaveTimeConfirmed == nil
}

// StatusChange is a row of booking_status_history.
type StatusChange struct {
	ID        uint64        `db:"id" json:"id"`
	BookingID uint64        `db:"booking_id" json:"booking_id"`
	OldStatus BookingStatus `db:"old_status" json:"old_status"`
	NewStatus BookingStatus `db:"new_status" json:"new_status"`
	Notes     string        `db:"notes" json:"notes"`
	ChangedBy uint64        `db:"changed_by" json:"changed_by"`
	ChangedAt time.Time     `db:"changed_at" json:"changed_at"`
}
