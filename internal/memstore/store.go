// Package memstore is an in-memory implementation of the service store
// interfaces, used by service and handler tests. WithTx serialises units
// of work and restores the previous state when fn fails.
package memstore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

type tokenRow struct {
	UserID    uint64
	Hash      string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type state struct {
	nextID      uint64
	users       map[uint64]model.User
	prefs       map[uint64]map[string]string
	tokens      []tokenRow
	restaurants map[uint64]model.Restaurant
	slots       []model.AvailabilitySlot
	customers   map[uint64]model.Customer
	bookings    map[uint64]model.Booking
	history     []model.StatusChange
	reasons     []model.CancellationReason
	reviews     map[uint64]model.Review
}

func newState() state {
	return state{
		users:       map[uint64]model.User{},
		prefs:       map[uint64]map[string]string{},
		restaurants: map[uint64]model.Restaurant{},
		customers:   map[uint64]model.Customer{},
		bookings:    map[uint64]model.Booking{},
		reviews:     map[uint64]model.Review{},
	}
}

func (s state) clone() state {
	c := s
	c.users = maps.Clone(s.users)
	c.prefs = make(map[uint64]map[string]string, len(s.prefs))
	for id, p := range s.prefs {
		c.prefs[id] = maps.Clone(p)
	}
	c.tokens = slices.Clone(s.tokens)
	c.restaurants = maps.Clone(s.restaurants)
	c.slots = slices.Clone(s.slots)
	c.customers = maps.Clone(s.customers)
	c.bookings = maps.Clone(s.bookings)
	c.history = slices.Clone(s.history)
	c.reasons = slices.Clone(s.reasons)
	c.reviews = maps.Clone(s.reviews)
	return c
}

// Store holds every table in memory.
type Store struct {
	txMu sync.Mutex // one unit of work at a time
	mu   sync.Mutex // guards st
	st   state
}

func New() *Store {
	return &Store{st: newState()}
}

type txKey struct{}

// WithTx runs fn as one unit of work. State changes made by fn are undone
// when it returns an error. Nested calls join the outer unit.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			s.st = snapshot
			s.mu.Unlock()
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) id() uint64 {
	s.st.nextID++
	return s.st.nextID
}

func (s *Store) Users() *Users             { return &Users{s} }
func (s *Store) Tokens() *Tokens           { return &Tokens{s} }
func (s *Store) Restaurants() *Restaurants { return &Restaurants{s} }
func (s *Store) Slots() *Slots             { return &Slots{s} }
func (s *Store) Customers() *Customers     { return &Customers{s} }
func (s *Store) Bookings() *Bookings       { return &Bookings{s} }
func (s *Store) Reasons() *Reasons         { return &Reasons{s} }
func (s *Store) Reviews() *Reviews         { return &Reviews{s} }

// AddRestaurant inserts r as an active restaurant taking reservations and
// returns it with its id.
func (s *Store) AddRestaurant(r model.Restaurant) model.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.IsActive = true
	r.AcceptsReservations = true
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.st.restaurants[r.ID] = r
	return r
}

// AddSlot inserts one availability slot.
func (s *Store) AddSlot(slot model.AvailabilitySlot) model.AvailabilitySlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.ID = s.id()
	s.st.slots = append(s.st.slots, slot)
	return slot
}

// AddBooking inserts b as-is, bypassing capacity checks. Tests use it to
// set up bookings in any status or on past dates.
func (s *Store) AddBooking(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	s.st.bookings[b.ID] = b
	return b
}

// History returns the status changes recorded for a booking, oldest first.
func (s *Store) History(bookingID uint64) []model.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.StatusChange
	for _, h := range s.st.history {
		if h.BookingID == bookingID {
			out = append(out, h)
		}
	}
	return out
}

// Seed loads the cancellation reasons and the sample restaurant catalogue
// with every slot open for days days from start.
func (s *Store) Seed(start model.Date, days int) {
	s.mu.Lock()
	s.st.reasons = slices.Clone(database.CancellationReasons)
	s.mu.Unlock()
	for _, r := range database.Restaurants {
		r = s.AddRestaurant(r)
		for i := 0; i < days; i++ {
			for _, at := range database.SlotTimes(r.CuisineType) {
				s.AddSlot(model.AvailabilitySlot{
					RestaurantID: r.ID,
					Date:         start.AddDays(i),
					Time:         at,
					MaxPartySize: r.MaxPartySize,
					IsOpen:       true,
				})
			}
		}
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
