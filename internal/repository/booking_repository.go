package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const bookingDetailSelect = `SELECT b.id, b.booking_reference, b.restaurant_id, b.customer_id, b.user_id,
	b.visit_date, b.visit_time, b.party_size, b.channel_code, b.special_requests,
	b.is_leave_time_confirmed, b.room_number, b.status, b.cancellation_reason_id,
	b.created_at, b.updated_at,
	r.name AS restaurant_name,
	c.first_name AS customer_first_name, c.surname AS customer_surname,
	c.email AS customer_email, c.mobile AS customer_mobile
	FROM bookings b
	JOIN restaurants r ON r.id = b.restaurant_id
	JOIN customers c ON c.id = b.customer_id`

// bookingRow is the flat shape of bookingDetailSelect.
type bookingRow struct {
	model.Booking
	RestaurantName    string `db:"restaurant_name"`
	CustomerFirstName string `db:"customer_first_name"`
	CustomerSurname   string `db:"customer_surname"`
	CustomerEmail     string `db:"customer_email"`
	CustomerMobile    string `db:"customer_mobile"`
}

func (row bookingRow) detail() model.BookingDetail {
	return model.BookingDetail{
		Booking:        row.Booking,
		RestaurantName: row.RestaurantName,
		Customer: model.CustomerSummary{
			FirstName: row.CustomerFirstName,
			Surname:   row.CustomerSurname,
			Email:     row.CustomerEmail,
			Mobile:    row.CustomerMobile,
		},
	}
}

type BookingRepo struct{ db *database.DB }

func NewBookingRepo(db *database.DB) *BookingRepo { return &BookingRepo{db: db} }

// ReferenceExists reports whether any booking already uses ref.
func (r *BookingRepo) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	q := r.db.Ext(ctx)
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind("SELECT COUNT(*) FROM bookings WHERE booking_reference = ?"), ref)
	return n > 0, err
}

// Create inserts b and sets its ID and timestamps. A reference collision
// surfaces as ErrConflict.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	id, err := database.InsertID(ctx, r.db.Ext(ctx), `INSERT INTO bookings
		(booking_reference, restaurant_id, customer_id, user_id, visit_date, visit_time, party_size,
		 channel_code, special_requests, is_leave_time_confirmed, room_number, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.Reference, b.RestaurantID, b.CustomerID, b.UserID, b.VisitDate, b.VisitTime, b.PartySize,
		b.ChannelCode, b.SpecialRequests, b.IsLeaveTimeConfirmed, b.RoomNumber, string(b.Status), now, now)
	if err != nil {
		return conflict(err, nil)
	}
	b.ID, b.CreatedAt, b.UpdatedAt = id, now, now
	return nil
}

// GetForUser returns the booking with ref at the named restaurant, only if
// userID owns it.
func (r *BookingRepo) GetForUser(ctx context.Context, restaurantName, ref string, userID uint64) (model.BookingDetail, error) {
	return r.getOne(ctx, " WHERE b.booking_reference = ? AND b.user_id = ? AND (r.name = ? OR r.microsite_name = ?)",
		ref, userID, restaurantName, restaurantName)
}

// GetByReferenceForUser returns the booking with ref only if userID owns it.
func (r *BookingRepo) GetByReferenceForUser(ctx context.Context, ref string, userID uint64) (model.BookingDetail, error) {
	return r.getOne(ctx, " WHERE b.booking_reference = ? AND b.user_id = ?", ref, userID)
}

func (r *BookingRepo) getOne(ctx context.Context, where string, args ...any) (model.BookingDetail, error) {
	q := r.db.Ext(ctx)
	var row bookingRow
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(bookingDetailSelect+where+" LIMIT 1"), args...); err != nil {
		return model.BookingDetail{}, notFound(err)
	}
	return row.detail(), nil
}

// CountConfirmed returns the number of confirmed bookings per slot time at
// the restaurant on date.
func (r *BookingRepo) CountConfirmed(ctx context.Context, restaurantID uint64, date model.Date) (map[model.TimeOfDay]int, error) {
	q := r.db.Ext(ctx)
	var rows []struct {
		At    model.TimeOfDay `db:"visit_time"`
		Count int             `db:"n"`
	}
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(`SELECT visit_time, COUNT(*) AS n FROM bookings
		WHERE restaurant_id = ? AND visit_date = ? AND status = ?
		GROUP BY visit_time`), restaurantID, date, string(model.StatusConfirmed))
	if err != nil {
		return nil, err
	}
	counts := make(map[model.TimeOfDay]int, len(rows))
	for _, row := range rows {
		counts[row.At] = row.Count
	}
	return counts, nil
}

// CountConfirmedAt counts confirmed bookings in one slot, ignoring the
// booking with id excludeID (0 excludes nothing).
func (r *BookingRepo) CountConfirmedAt(ctx context.Context, restaurantID uint64, date model.Date, at model.TimeOfDay, excludeID uint64) (int, error) {
	q := r.db.Ext(ctx)
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind(`SELECT COUNT(*) FROM bookings
		WHERE restaurant_id = ? AND visit_date = ? AND visit_time = ? AND status = ? AND id <> ?`),
		restaurantID, date, at, string(model.StatusConfirmed), excludeID)
	return n, err
}

// Update writes the mutable columns of b and refreshes b.UpdatedAt.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	b.UpdatedAt = time.Now().UTC()
	q := r.db.Ext(ctx)
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE bookings SET
		visit_date = ?, visit_time = ?, party_size = ?, special_requests = ?, is_leave_time_confirmed = ?,
		status = ?, cancellation_reason_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`),
		b.VisitDate, b.VisitTime, b.PartySize, b.SpecialRequests, b.IsLeaveTimeConfirmed,
		string(b.Status), b.CancellationReasonID, b.UpdatedAt, b.ID, b.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordStatusChange appends a row to booking_status_history.
func (r *BookingRepo) RecordStatusChange(ctx context.Context, c *model.StatusChange) error {
	if c.ChangedAt.IsZero() {
		c.ChangedAt = time.Now().UTC()
	}
	id, err := database.InsertID(ctx, r.db.Ext(ctx), `INSERT INTO booking_status_history
		(booking_id, old_status, new_status, notes, changed_by, changed_at) VALUES (?,?,?,?,?,?)`,
		c.BookingID, string(c.OldStatus), string(c.NewStatus), c.Notes, c.ChangedBy, c.ChangedAt)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// ListForUser returns every booking owned by userID, newest visit first.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	q := r.db.Ext(ctx)
	var rows []bookingRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(bookingDetailSelect+
		" WHERE b.user_id = ? ORDER BY b.visit_date DESC, b.visit_time DESC, b.id DESC"), userID); err != nil {
		return nil, err
	}
	out := make([]model.BookingDetail, len(rows))
	for i, row := range rows {
		out[i] = row.detail()
	}
	return out, nil
}
