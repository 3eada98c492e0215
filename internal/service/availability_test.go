package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

func TestResolve(t *testing.T) {
	six, seven, eight := model.NewTimeOfDay(18, 0), model.NewTimeOfDay(19, 0), model.NewTimeOfDay(20, 0)
	slots := []model.AvailabilitySlot{
		{Time: six, MaxPartySize: 8, IsOpen: true},
		{Time: seven, MaxPartySize: 8, IsOpen: false},
		{Time: eight, MaxPartySize: 2, IsOpen: true},
	}
	counts := map[model.TimeOfDay]int{six: 3}

	got := Resolve(slots, counts, 4, 3)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (slot too small for party must be dropped)", len(got))
	}
	if got[0].Time != six || got[0].Available || got[0].CurrentBookings != 3 {
		t.Errorf("full slot = %+v", got[0])
	}
	if got[1].Time != seven || got[1].Available {
		t.Errorf("closed slot = %+v", got[1])
	}

	got = Resolve(slots, counts, 2, 4)
	if len(got) != 3 || !got[0].Available || !got[2].Available {
		t.Errorf("higher ceiling = %+v", got)
	}
}

func TestSakuraSlotFillsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := model.DateOf(testNow).AddDays(1)
	six := model.NewTimeOfDay(18, 0)

	search := func() []model.SlotAvailability {
		t.Helper()
		res, err := f.avail.Search(ctx, "Sakura Sushi Bar", date, 4, "ONLINE")
		if err != nil {
			t.Fatal(err)
		}
		return res.Slots
	}
	slotAt := func() model.SlotAvailability {
		t.Helper()
		for _, s := range search() {
			if s.Time == six {
				return s
			}
		}
		t.Fatal("18:00 slot missing")
		return model.SlotAvailability{}
	}

	initial := search()
	if len(initial) == 0 {
		t.Fatal("no slots for a party of 4")
	}
	for _, s := range initial {
		if s.CurrentBookings != 0 || !s.Available {
			t.Fatalf("initial slot = %+v", s)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := f.bookings.Create(ctx, f.ana, "Sakura Sushi Bar", bookingInput(1, 18, 0, 4)); err != nil {
			t.Fatalf("booking %d: %v", i+1, err)
		}
	}
	if s := slotAt(); s.Available || s.CurrentBookings != 3 {
		t.Fatalf("slot after three bookings = %+v", s)
	}
	_, err := f.bookings.Create(ctx, f.bob, "Sakura Sushi Bar", bookingInput(1, 18, 0, 4))
	wantCode(t, err, apperror.CodeSlotUnavailable, http.StatusConflict)

	open, err := f.avail.ForRestaurant(ctx, f.restaurant(t, "Sakura Sushi Bar").ID, date, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range open.Slots {
		if s.Time == six {
			t.Fatal("full slot listed as open")
		}
	}
}

func TestSearchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := model.DateOf(testNow)

	_, err := f.avail.Search(ctx, "Sakura Sushi Bar", date, 0, "")
	wantCode(t, err, apperror.CodeValidation, http.StatusUnprocessableEntity)
	_, err = f.avail.Search(ctx, "Sakura Sushi Bar", date, 21, "")
	wantCode(t, err, apperror.CodeValidation, http.StatusUnprocessableEntity)
	_, err = f.avail.Search(ctx, "Nowhere", date, 2, "")
	wantCode(t, err, apperror.CodeNotFound, http.StatusNotFound)

	// Sakura seats at most six.
	res, err := f.avail.Search(ctx, "SakuraSushiBar", date, 7, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalSlots != 0 {
		t.Fatalf("slots for party of 7 = %d", res.TotalSlots)
	}
}
