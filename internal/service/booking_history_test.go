package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

// seedHistory gives ana five bookings across three restaurants.
func seedHistory(t *testing.T, f *fixture) map[string]model.Booking {
	t.Helper()
	today := model.DateOf(testNow)
	add := func(ref, restaurant string, days int, status model.BookingStatus) model.Booking {
		return f.store.AddBooking(model.Booking{
			Reference:    ref,
			RestaurantID: f.restaurant(t, restaurant).ID,
			UserID:       f.ana.ID,
			VisitDate:    today.AddDays(days),
			VisitTime:    model.NewTimeOfDay(19, 0),
			PartySize:    2,
			Status:       status,
		})
	}
	return map[string]model.Booking{
		"past":      add("PAST001", "TheHungryUnicorn", -10, model.StatusCompleted),
		"cancelled": add("CANC001", "TheHungryUnicorn", -3, model.StatusCancelled),
		"today":     add("TODAY01", "Bella Vista Italian", 0, model.StatusConfirmed),
		"tomorrow":  add("TMRW001", "Spice Route Indian", 1, model.StatusPending),
		"later":     add("LATER01", "TheHungryUnicorn", 40, model.StatusConfirmed),
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bs := seedHistory(t, f)

	page, err := f.bookings.History(ctx, f.ana, BookingFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 5 || page.Limit != DefaultHistoryLimit || page.HasMore {
		t.Fatalf("page = %+v", page)
	}
	if page.Bookings[0].Reference != "LATER01" || page.Bookings[4].Reference != "PAST001" {
		t.Errorf("default order: first %s last %s", page.Bookings[0].Reference, page.Bookings[4].Reference)
	}
	for _, it := range page.Bookings {
		if it.ID == bs["past"].ID && (!it.IsPast || !it.CanReview || it.CanCancel || it.CanModify) {
			t.Errorf("past flags = %+v", it)
		}
		if it.ID == bs["today"].ID && (it.IsPast || it.CanModify || !it.CanCancel) {
			t.Errorf("today flags = %+v", it)
		}
	}

	tests := []struct {
		name string
		f    BookingFilter
		want []string
	}{
		{"status", BookingFilter{Status: "Confirmed"}, []string{"LATER01", "TODAY01"}},
		{"restaurant substring", BookingFilter{Restaurant: "unicorn", SortBy: SortDateAsc}, []string{"PAST001", "CANC001", "LATER01"}},
		{"search reference", BookingFilter{Search: "tmrw"}, []string{"TMRW001"}},
		{"date range", BookingFilter{DateFrom: model.DateOf(testNow), DateTo: model.DateOf(testNow).AddDays(1)}, []string{"TMRW001", "TODAY01"}},
		{"by restaurant", BookingFilter{SortBy: SortRestaurant, Limit: 2}, []string{"TODAY01", "TMRW001"}},
		{"offset", BookingFilter{Limit: 2, Offset: 4}, []string{"PAST001"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.bookings.History(ctx, f.ana, tt.f)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, it := range page.Bookings {
				got = append(got, it.Reference)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestHistoryReviewedBookingCannotBeReviewedAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedHistory(t, f)
	if _, err := f.reviews.Create(ctx, f.ana, ReviewInput{BookingReference: "PAST001", Rating: 5}); err != nil {
		t.Fatal(err)
	}
	page, err := f.bookings.History(ctx, f.ana, BookingFilter{Search: "PAST001"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Bookings) != 1 || page.Bookings[0].CanReview {
		t.Fatalf("page = %+v", page.Bookings)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)
	st, err := f.bookings.Stats(context.Background(), f.ana)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalBookings != 5 || st.ConfirmedBookings != 2 || st.CancelledBookings != 1 || st.CompletedBookings != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.UpcomingBookings != 2 || st.UniqueRestaurants != 3 {
		t.Errorf("upcoming %d, unique %d", st.UpcomingBookings, st.UniqueRestaurants)
	}
	if st.FavoriteRestaurant == nil || *st.FavoriteRestaurant != "TheHungryUnicorn" {
		t.Errorf("favorite = %v", st.FavoriteRestaurant)
	}
	if st.StatusBreakdown["no_show"] != 0 || st.StatusBreakdown["pending"] != 1 || len(st.StatusBreakdown) != 5 {
		t.Errorf("breakdown = %v", st.StatusBreakdown)
	}

	empty, err := f.bookings.Stats(context.Background(), f.bob)
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalBookings != 0 || empty.FavoriteRestaurant != nil {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedHistory(t, f)

	res, err := f.bookings.Upcoming(ctx, f.ana, DefaultUpcomingDays)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 || res.Bookings[0].Reference != "TODAY01" {
		t.Fatalf("upcoming = %+v", res)
	}
	if !res.Bookings[0].IsToday || !res.Bookings[1].IsTomorrow || res.Bookings[1].DaysUntil != 1 {
		t.Errorf("flags = %+v / %+v", res.Bookings[0], res.Bookings[1])
	}
	if res.DateRange.Days != 30 || !res.DateRange.To.Equal(model.DateOf(testNow).AddDays(30)) {
		t.Errorf("range = %+v", res.DateRange)
	}

	res, err = f.bookings.Upcoming(ctx, f.ana, 365)
	if err != nil || res.Total != 3 {
		t.Fatalf("year ahead: %d, %v", res.Total, err)
	}
	_, err = f.bookings.Upcoming(ctx, f.ana, 366)
	wantCode(t, err, apperror.CodeInvalidInput, http.StatusBadRequest)
}

func TestFilterOptions(t *testing.T) {
	f := newFixture(t)
	seedHistory(t, f)
	opts, err := f.bookings.FilterOptions(context.Background(), f.ana)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Bella Vista Italian", "Spice Route Indian", "TheHungryUnicorn"}
	if len(opts.Restaurants) != 3 || opts.Restaurants[0] != want[0] || opts.Restaurants[2] != want[2] {
		t.Errorf("restaurants = %v", opts.Restaurants)
	}
	if len(opts.Statuses) != 4 || opts.Statuses[0] != "cancelled" {
		t.Errorf("statuses = %v", opts.Statuses)
	}
	if len(opts.SortOptions) != 4 {
		t.Errorf("sort options = %v", opts.SortOptions)
	}
}
