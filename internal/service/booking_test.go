package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/queue"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

func TestCreateAndGetBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.bookings.Create(ctx, f.ana, "TheHungryUnicorn", bookingInput(2, 19, 30, 4))
	if err != nil {
		t.Fatal(err)
	}
	if !ValidReference(b.Reference) {
		t.Errorf("reference %q", b.Reference)
	}
	if b.Status != model.StatusConfirmed || b.RestaurantName != "TheHungryUnicorn" || b.Customer.FirstName != "Ana" {
		t.Errorf("booking = %+v", b)
	}

	got, err := f.bookings.Get(ctx, f.ana, "TheHungryUnicorn", b.Reference)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != b.ID || got.PartySize != 4 {
		t.Errorf("fetched = %+v", got)
	}

	_, err = f.bookings.Get(ctx, f.bob, "TheHungryUnicorn", b.Reference)
	wantCode(t, err, apperror.CodeNotFound, http.StatusNotFound)
	_, err = f.bookings.Get(ctx, f.ana, "Bella Vista Italian", b.Reference)
	wantCode(t, err, apperror.CodeNotFound, http.StatusNotFound)

	h := f.store.History(b.ID)
	if len(h) != 1 || h[0].OldStatus != "" || h[0].NewStatus != model.StatusConfirmed {
		t.Errorf("history = %+v", h)
	}
	if got := f.events.types(); !slices.Equal(got, []string{queue.EventBookingCreated}) {
		t.Errorf("events = %v", got)
	}
}

func TestCreateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		rest   string
		in     CreateBookingInput
		code   string
		status int
	}{
		{"party too large", "TheHungryUnicorn", bookingInput(1, 19, 0, 21), apperror.CodeValidation, http.StatusUnprocessableEntity},
		{"unknown restaurant", "Nowhere", bookingInput(1, 19, 0, 2), apperror.CodeNotFound, http.StatusNotFound},
		{"no slot at time", "TheHungryUnicorn", bookingInput(1, 16, 15, 2), apperror.CodeSlotUnavailable, http.StatusConflict},
		{"party over slot max", "Sakura Sushi Bar", bookingInput(1, 18, 0, 7), apperror.CodeSlotUnavailable, http.StatusConflict},
		{"past seeded range", "TheHungryUnicorn", bookingInput(30, 19, 0, 2), apperror.CodeSlotUnavailable, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.Create(ctx, f.ana, tt.rest, tt.in)
			wantCode(t, err, tt.code, tt.status)
		})
	}
	if list, _ := f.bookings.ListForUser(ctx, f.ana); len(list) != 0 {
		t.Fatalf("rejected requests left %d bookings", len(list))
	}
}

func TestCreateReferenceExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.bookings.refs = &ReferenceAllocator{MaxAttempts: 3, Source: zeroReader{}}

	if _, err := f.bookings.Create(ctx, f.ana, "TheHungryUnicorn", bookingInput(1, 19, 0, 2)); err != nil {
		t.Fatal(err)
	}
	_, err := f.bookings.Create(ctx, f.bob, "TheHungryUnicorn", bookingInput(1, 19, 0, 2))
	wantCode(t, err, apperror.CodeReferenceExhausted, http.StatusServiceUnavailable)
	if list, _ := f.bookings.ListForUser(ctx, f.bob); len(list) != 0 {
		t.Fatalf("bob has %d bookings", len(list))
	}
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.bookings.Create(ctx, f.ana, "Bella Vista Italian", bookingInput(3, 12, 0, 2))
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.bookings.Cancel(ctx, f.ana, "Bella Vista Italian", b.Reference, 99)
	wantCode(t, err, apperror.CodeInvalidInput, http.StatusBadRequest)
	_, err = f.bookings.Cancel(ctx, f.bob, "Bella Vista Italian", b.Reference, 1)
	wantCode(t, err, apperror.CodeNotFound, http.StatusNotFound)

	got, err := f.bookings.Cancel(ctx, f.ana, "Bella Vista Italian", b.Reference, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusCancelled || got.CancellationReasonID == nil || *got.CancellationReasonID != 3 {
		t.Errorf("cancelled = %+v", got.Booking)
	}
	_, err = f.bookings.Cancel(ctx, f.ana, "Bella Vista Italian", b.Reference, 1)
	wantCode(t, err, apperror.CodeAlreadyCancelled, http.StatusConflict)

	h := f.store.History(b.ID)
	if len(h) != 2 || h[1].NewStatus != model.StatusCancelled || h[1].Notes != "Weather" {
		t.Errorf("history = %+v", h)
	}
	_, err = f.bookings.Update(ctx, f.ana, "Bella Vista Italian", b.Reference, model.BookingUpdate{})
	wantCode(t, err, apperror.CodeConflict, http.StatusConflict)
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var refs []string
	for i := 0; i < DefaultSlotCeiling; i++ {
		b, err := f.bookings.Create(ctx, f.ana, "Sakura Sushi Bar", bookingInput(1, 19, 0, 2))
		if err != nil {
			t.Fatal(err)
		}
		refs = append(refs, b.Reference)
	}
	if _, err := f.bookings.Cancel(ctx, f.ana, "Sakura Sushi Bar", refs[0], 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.bookings.Create(ctx, f.bob, "Sakura Sushi Bar", bookingInput(1, 19, 0, 2)); err != nil {
		t.Fatalf("slot not freed by cancellation: %v", err)
	}
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.bookings.Create(ctx, f.ana, "Sakura Sushi Bar", bookingInput(1, 18, 0, 2))
	if err != nil {
		t.Fatal(err)
	}

	note := "window seat"
	party := 4
	got, err := f.bookings.Update(ctx, f.ana, "Sakura Sushi Bar", b.Reference, model.BookingUpdate{SpecialRequests: &note, PartySize: &party})
	if err != nil {
		t.Fatal(err)
	}
	if got.SpecialRequests != note || got.PartySize != 4 {
		t.Errorf("updated = %+v", got.Booking)
	}

	tooMany := 7
	_, err = f.bookings.Update(ctx, f.ana, "Sakura Sushi Bar", b.Reference, model.BookingUpdate{PartySize: &tooMany})
	wantCode(t, err, apperror.CodeSlotUnavailable, http.StatusConflict)

	// Fill 20:00, then try to move there.
	for i := 0; i < DefaultSlotCeiling; i++ {
		if _, err := f.bookings.Create(ctx, f.bob, "Sakura Sushi Bar", bookingInput(1, 20, 0, 2)); err != nil {
			t.Fatal(err)
		}
	}
	eight := model.NewTimeOfDay(20, 0)
	_, err = f.bookings.Update(ctx, f.ana, "Sakura Sushi Bar", b.Reference, model.BookingUpdate{VisitTime: &eight})
	wantCode(t, err, apperror.CodeSlotUnavailable, http.StatusConflict)

	// A booking never competes with itself for its own slot.
	for i := 0; i < DefaultSlotCeiling-1; i++ {
		if _, err := f.bookings.Create(ctx, f.bob, "Sakura Sushi Bar", bookingInput(1, 18, 0, 2)); err != nil {
			t.Fatal(err)
		}
	}
	same := 3
	if _, err := f.bookings.Update(ctx, f.ana, "Sakura Sushi Bar", b.Reference, model.BookingUpdate{PartySize: &same}); err != nil {
		t.Fatalf("resize in a full slot: %v", err)
	}

	stored, _ := f.bookings.Get(ctx, f.ana, "Sakura Sushi Bar", b.Reference)
	if stored.VisitTime != model.NewTimeOfDay(18, 0) || stored.PartySize != 3 {
		t.Errorf("stored = %+v", stored.Booking)
	}
}

func TestChangeStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "TheHungryUnicorn")
	pending := f.store.AddBooking(model.Booking{
		Reference:    "PEND001",
		RestaurantID: r.ID,
		UserID:       f.ana.ID,
		VisitDate:    model.DateOf(testNow).AddDays(2),
		VisitTime:    model.NewTimeOfDay(19, 0),
		PartySize:    2,
		Status:       model.StatusPending,
	})

	_, err := f.bookings.ChangeStatus(ctx, f.ana, pending.Reference, "seated", nil)
	wantCode(t, err, apperror.CodeInvalidInput, http.StatusBadRequest)
	_, err = f.bookings.ChangeStatus(ctx, f.ana, pending.Reference, "completed", nil)
	wantCode(t, err, apperror.CodeInvalidTransition, http.StatusConflict)
	_, err = f.bookings.ChangeStatus(ctx, f.bob, pending.Reference, "confirmed", nil)
	wantCode(t, err, apperror.CodeNotFound, http.StatusNotFound)

	note := "phoned ahead"
	res, err := f.bookings.ChangeStatus(ctx, f.ana, pending.Reference, "CONFIRMED", &note)
	if err != nil {
		t.Fatal(err)
	}
	if res.OldStatus != model.StatusPending || res.NewStatus != model.StatusConfirmed || res.Notes != &note {
		t.Errorf("result = %+v", res)
	}
	if _, err := f.bookings.ChangeStatus(ctx, f.ana, pending.Reference, "completed", nil); err != nil {
		t.Fatal(err)
	}
	for _, next := range []string{"confirmed", "cancelled", "no_show", "pending"} {
		_, err = f.bookings.ChangeStatus(ctx, f.ana, pending.Reference, next, nil)
		wantCode(t, err, apperror.CodeInvalidTransition, http.StatusConflict)
	}

	h := f.store.History(pending.ID)
	if len(h) != 2 || h[0].Notes != note || h[1].NewStatus != model.StatusCompleted {
		t.Errorf("history = %+v", h)
	}
	evs := f.events.events
	if len(evs) != 2 || evs[0].Type != queue.EventBookingStatusChanged || evs[0].OldStatus != "pending" {
		t.Errorf("events = %+v", evs)
	}
}

func TestConfirmPendingRespectsCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.restaurant(t, "Sakura Sushi Bar")
	pending := f.store.AddBooking(model.Booking{
		Reference:    "PEND002",
		RestaurantID: r.ID,
		UserID:       f.ana.ID,
		VisitDate:    model.DateOf(testNow).AddDays(1),
		VisitTime:    model.NewTimeOfDay(18, 0),
		PartySize:    2,
		Status:       model.StatusPending,
	})
	for i := 0; i < DefaultSlotCeiling; i++ {
		if _, err := f.bookings.Create(ctx, f.bob, "Sakura Sushi Bar", bookingInput(1, 18, 0, 2)); err != nil {
			t.Fatal(err)
		}
	}
	_, err := f.bookings.ChangeStatus(ctx, f.ana, pending.Reference, "confirmed", nil)
	wantCode(t, err, apperror.CodeSlotUnavailable, http.StatusConflict)
	if _, err := f.bookings.ChangeStatus(ctx, f.ana, pending.Reference, "cancelled", nil); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
}

func TestCustomerProfileIsReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.bookings.Create(ctx, f.ana, "TheHungryUnicorn", bookingInput(1, 19, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	in := bookingInput(2, 19, 0, 2)
	in.Customer.FirstName = "Someone Else"
	second, err := f.bookings.Create(ctx, f.ana, "TheHungryUnicorn", in)
	if err != nil {
		t.Fatal(err)
	}
	if first.CustomerID != second.CustomerID || second.Customer.FirstName != "Ana" {
		t.Fatalf("customer ids %d/%d, name %q", first.CustomerID, second.CustomerID, second.Customer.FirstName)
	}
}

// racingCustomers loses the insert race once: the first lookup misses,
// the insert conflicts, and the winner is visible afterwards.
type racingCustomers struct {
	lookups int
	winner  model.Customer
}

func (r *racingCustomers) GetByUserID(context.Context, uint64) (model.Customer, error) {
	r.lookups++
	if r.lookups == 1 {
		return model.Customer{}, repository.ErrNotFound
	}
	return r.winner, nil
}

func (r *racingCustomers) Create(context.Context, *model.Customer) error {
	return repository.ErrConflict
}

func TestGetOrCreateReadsRaceWinner(t *testing.T) {
	store := &racingCustomers{winner: model.Customer{ID: 42, UserID: 7, FirstName: "Winner"}}
	c, err := NewCustomerService(store).GetOrCreate(context.Background(), model.User{ID: 7}, model.CustomerDetails{FirstName: "Loser"})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != 42 || store.lookups != 2 {
		t.Fatalf("customer = %+v after %d lookups", c, store.lookups)
	}
}

func TestGetOrCreateFillsFromAccount(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "cara", "Cara", "Diaz")
	u.Phone = "555-0101"
	c, err := NewCustomerService(f.store.Customers()).GetOrCreate(context.Background(), u, model.CustomerDetails{Surname: "D."})
	if err != nil {
		t.Fatal(err)
	}
	if c.FirstName != "Cara" || c.Surname != "D." || c.Email != "cara@example.com" || c.Mobile != "555-0101" {
		t.Fatalf("customer = %+v", c)
	}
}

func TestCancellationReasons(t *testing.T) {
	f := newFixture(t)
	reasons, err := f.bookings.CancellationReasons(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(reasons) != 5 || reasons[0].Reason != "Customer Request" {
		t.Fatalf("reasons = %+v", reasons)
	}
}

func TestBookingErrPassesAppErrors(t *testing.T) {
	ae := apperror.Conflict("x")
	if got := bookingErr(ae); !errors.Is(got, ae) {
		t.Fatalf("got %v", got)
	}
	wantCode(t, bookingErr(errors.New("boom")), apperror.CodeInternal, http.StatusInternalServerError)
}
