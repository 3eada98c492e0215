package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const slotColumns = "id, restaurant_id, slot_date, slot_time, max_party_size, is_open"

type SlotRepo struct{ db *database.DB }

func NewSlotRepo(db *database.DB) *SlotRepo { return &SlotRepo{db: db} }

// ListForDate returns the restaurant's slots on date that seat at least
// minPartySize, ordered by time. Closed slots are included.
func (r *SlotRepo) ListForDate(ctx context.Context, restaurantID uint64, date model.Date, minPartySize int) ([]model.AvailabilitySlot, error) {
	q := r.db.Ext(ctx)
	var slots []model.AvailabilitySlot
	err := sqlx.SelectContext(ctx, q, &slots, q.Rebind(
		"SELECT "+slotColumns+` FROM availability_slots
		 WHERE restaurant_id = ? AND slot_date = ? AND max_party_size >= ?
		 ORDER BY slot_time`), restaurantID, date, minPartySize)
	return slots, err
}

// LockSlot reads one slot with a row lock. Outside a transaction the lock
// is released immediately, so callers run it inside WithTx.
func (r *SlotRepo) LockSlot(ctx context.Context, restaurantID uint64, date model.Date, at model.TimeOfDay) (model.AvailabilitySlot, error) {
	q := r.db.Ext(ctx)
	var slot model.AvailabilitySlot
	err := sqlx.GetContext(ctx, q, &slot, q.Rebind(
		"SELECT "+slotColumns+` FROM availability_slots
		 WHERE restaurant_id = ? AND slot_date = ? AND slot_time = ? FOR UPDATE`), restaurantID, date, at)
	return slot, notFound(err)
}
