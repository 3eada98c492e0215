// Package service holds the booking API's business rules. Services depend
// on the narrow store interfaces below; the SQL repositories and the
// in-memory store both satisfy them.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// TxRunner runs fn as one unit of work. Stores reached with the ctx passed
// to fn take part in it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, upd model.ProfileUpdate) error
	Deactivate(ctx context.Context, id uint64) error
	Preferences(ctx context.Context, id uint64) (map[string]string, error)
	SetPreferences(ctx context.Context, id uint64, prefs map[string]string) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID uint64, now time.Time) error
}

type RestaurantStore interface {
	GetByID(ctx context.Context, id uint64) (model.Restaurant, error)
	GetByName(ctx context.Context, name string) (model.Restaurant, error)
	Search(ctx context.Context, f model.RestaurantFilter) ([]model.Restaurant, error)
	Cuisines(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
	UpdateRating(ctx context.Context, id uint64, average float64, total int) error
}

type SlotStore interface {
	ListForDate(ctx context.Context, restaurantID uint64, date model.Date, minPartySize int) ([]model.AvailabilitySlot, error)
	LockSlot(ctx context.Context, restaurantID uint64, date model.Date, at model.TimeOfDay) (model.AvailabilitySlot, error)
}

type BookingStore interface {
	ReferenceExists(ctx context.Context, ref string) (bool, error)
	Create(ctx context.Context, b *model.Booking) error
	GetForUser(ctx context.Context, restaurantName, ref string, userID uint64) (model.BookingDetail, error)
	GetByReferenceForUser(ctx context.Context, ref string, userID uint64) (model.BookingDetail, error)
	CountConfirmed(ctx context.Context, restaurantID uint64, date model.Date) (map[model.TimeOfDay]int, error)
	CountConfirmedAt(ctx context.Context, restaurantID uint64, date model.Date, at model.TimeOfDay, excludeID uint64) (int, error)
	Update(ctx context.Context, b *model.Booking) error
	RecordStatusChange(ctx context.Context, c *model.StatusChange) error
	ListForUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
}

type CustomerStore interface {
	GetByUserID(ctx context.Context, userID uint64) (model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
}

type CancellationReasonStore interface {
	Get(ctx context.Context, id int64) (model.CancellationReason, error)
	List(ctx context.Context) ([]model.CancellationReason, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	ListByRestaurant(ctx context.Context, restaurantID uint64, f model.ReviewFilter) ([]model.ReviewDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.ReviewDetail, error)
	GetByBookingForUser(ctx context.Context, ref string, userID uint64) (model.ReviewDetail, error)
	ReviewedBookingIDs(ctx context.Context, userID uint64) (map[uint64]bool, error)
	Ratings(ctx context.Context, restaurantID uint64) ([]model.RatingSample, error)
}

// Clock returns the current time. Services default to time.Now in UTC.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
