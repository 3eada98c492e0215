package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/memstore"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/queue"
)

var testNow = time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	bookings *BookingService
	avail    *AvailabilityService
	reviews  *ReviewService
	events   *recordingPublisher
	ana, bob model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	st.Seed(model.DateOf(testNow), 14)
	events := &recordingPublisher{}
	clock := func() time.Time { return testNow }

	f := &fixture{store: st, events: events}
	f.bookings = NewBookingService(BookingDeps{
		Tx:          st,
		Restaurants: st.Restaurants(),
		Slots:       st.Slots(),
		Bookings:    st.Bookings(),
		Reasons:     st.Reasons(),
		Reviews:     st.Reviews(),
		Customers:   NewCustomerService(st.Customers()),
		Events:      events,
		Now:         clock,
	})
	f.avail = NewAvailabilityService(st.Restaurants(), st.Slots(), st.Bookings(), 0)
	f.reviews = NewReviewService(st, st.Restaurants(), st.Bookings(), st.Reviews()).WithClock(clock)
	f.ana = f.addUser(t, "ana", "Ana", "Lopez")
	f.bob = f.addUser(t, "bob", "Bob", "Stone")
	return f
}

func (f *fixture) addUser(t *testing.T, username, first, last string) model.User {
	t.Helper()
	u := model.User{Username: username, Email: username + "@example.com", FirstName: first, LastName: last, IsActive: true}
	if err := f.store.Users().Create(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) restaurant(t *testing.T, name string) model.Restaurant {
	t.Helper()
	r, err := f.store.Restaurants().GetByName(context.Background(), name)
	if err != nil {
		t.Fatalf("restaurant %q: %v", name, err)
	}
	return r
}

func bookingInput(daysAhead, hour, minute, party int) CreateBookingInput {
	return CreateBookingInput{
		VisitDate:   model.DateOf(testNow).AddDays(daysAhead),
		VisitTime:   model.NewTimeOfDay(hour, minute),
		PartySize:   party,
		ChannelCode: "ONLINE",
		Customer:    model.CustomerDetails{FirstName: "Ana", Surname: "Lopez", Email: "ana@example.com"},
	}
}

func wantCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	ae := apperror.From(err)
	if ae.Code != code || ae.HTTPStatus != status {
		t.Fatalf("got %s/%d (%v), want %s/%d", ae.Code, ae.HTTPStatus, err, code, status)
	}
}
