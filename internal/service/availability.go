package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/metrics"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

const (
	MinPartySize = 1
	MaxPartySize = 20

	// DefaultSlotCeiling is the number of confirmed bookings after which a
	// slot stops being offered.
	DefaultSlotCeiling = 3
)

// AvailabilityResult is the resolved availability of a restaurant on a date.
type AvailabilityResult struct {
	Restaurant   string                   `json:"restaurant"`
	RestaurantID uint64                   `json:"restaurant_id"`
	VisitDate    model.Date               `json:"visit_date"`
	PartySize    int                      `json:"party_size"`
	ChannelCode  string                   `json:"channel_code,omitempty"`
	Slots        []model.SlotAvailability `json:"available_slots"`
	TotalSlots   int                      `json:"total_slots"`
}

// Resolve annotates every slot that seats partySize with its confirmed
// booking count. A slot is available only while it is open and holds
// fewer than ceiling confirmed bookings. The input order is preserved.
func Resolve(slots []model.AvailabilitySlot, counts map[model.TimeOfDay]int, partySize, ceiling int) []model.SlotAvailability {
	out := make([]model.SlotAvailability, 0, len(slots))
	for _, s := range slots {
		if s.MaxPartySize < partySize {
			continue
		}
		n := counts[s.Time]
		out = append(out, model.SlotAvailability{
			Time:            s.Time,
			Available:       s.IsOpen && n < ceiling,
			MaxPartySize:    s.MaxPartySize,
			CurrentBookings: n,
		})
	}
	return out
}

// AvailabilityService answers slot queries. Results are a snapshot; the
// booking path re-checks capacity under a row lock.
type AvailabilityService struct {
	restaurants RestaurantStore
	slots       SlotStore
	bookings    BookingStore
	ceiling     int
}

func NewAvailabilityService(restaurants RestaurantStore, slots SlotStore, bookings BookingStore, ceiling int) *AvailabilityService {
	if ceiling < 1 {
		ceiling = DefaultSlotCeiling
	}
	return &AvailabilityService{restaurants: restaurants, slots: slots, bookings: bookings, ceiling: ceiling}
}

// Ceiling returns the per-slot confirmed booking limit in force.
func (s *AvailabilityService) Ceiling() int { return s.ceiling }

// Search resolves every slot of the named restaurant on date that seats
// partySize, closed slots included.
func (s *AvailabilityService) Search(ctx context.Context, restaurantName string, date model.Date, partySize int, channel string) (AvailabilityResult, error) {
	if err := validatePartySize(partySize); err != nil {
		return AvailabilityResult{}, err
	}
	r, err := s.restaurants.GetByName(ctx, restaurantName)
	if err != nil {
		return AvailabilityResult{}, restaurantErr(err)
	}
	slots, err := s.resolve(ctx, r.ID, date, partySize)
	if err != nil {
		return AvailabilityResult{}, err
	}
	zerolog.Ctx(ctx).Debug().Str("restaurant", r.Name).Stringer("date", date).Int("party_size", partySize).
		Int("slots", len(slots)).Msg("availability search")
	return AvailabilityResult{
		Restaurant:   restaurantName,
		RestaurantID: r.ID,
		VisitDate:    date,
		PartySize:    partySize,
		ChannelCode:  channel,
		Slots:        slots,
		TotalSlots:   len(slots),
	}, nil
}

// ForRestaurant is Search by restaurant id, keeping only open slots.
func (s *AvailabilityService) ForRestaurant(ctx context.Context, restaurantID uint64, date model.Date, partySize int) (AvailabilityResult, error) {
	if err := validatePartySize(partySize); err != nil {
		return AvailabilityResult{}, err
	}
	r, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return AvailabilityResult{}, restaurantErr(err)
	}
	all, err := s.resolve(ctx, r.ID, date, partySize)
	if err != nil {
		return AvailabilityResult{}, err
	}
	open := make([]model.SlotAvailability, 0, len(all))
	for _, sl := range all {
		if sl.Available {
			open = append(open, sl)
		}
	}
	return AvailabilityResult{
		Restaurant:   r.Name,
		RestaurantID: r.ID,
		VisitDate:    date,
		PartySize:    partySize,
		Slots:        open,
		TotalSlots:   len(open),
	}, nil
}

func (s *AvailabilityService) resolve(ctx context.Context, restaurantID uint64, date model.Date, partySize int) ([]model.SlotAvailability, error) {
	metrics.AvailabilitySearches.Inc()
	slots, err := s.slots.ListForDate(ctx, restaurantID, date, partySize)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	counts, err := s.bookings.CountConfirmed(ctx, restaurantID, date)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return Resolve(slots, counts, partySize, s.ceiling), nil
}

func validatePartySize(n int) error {
	if n < MinPartySize || n > MaxPartySize {
		return apperror.Validation("party size must be between 1 and 20", map[string]any{
			"party_size": n,
		})
	}
	return nil
}

func restaurantErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("restaurant")
	}
	return apperror.Internal(err)
}
