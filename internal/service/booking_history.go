package service

import (
	"context"
	"sort"
	"strings"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const (
	DefaultHistoryLimit = 50
	DefaultUpcomingDays = 30
	maxUpcomingDays     = 365
)

// Sort orders accepted by History.
const (
	SortDateDesc   = "date_desc"
	SortDateAsc    = "date_asc"
	SortRestaurant = "restaurant"
	SortStatus     = "status"
)

// SortOptions lists the History orders with display labels.
var SortOptions = []SortOption{
	{Value: SortDateDesc, Label: "Newest First"},
	{Value: SortDateAsc, Label: "Oldest First"},
	{Value: SortRestaurant, Label: "Restaurant A-Z"},
	{Value: SortStatus, Label: "Status"},
}

type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// BookingFilter narrows a user's booking history. Search matches the
// reference, the restaurant name and the guest's names.
type BookingFilter struct {
	Search     string
	Status     string
	Restaurant string
	DateFrom   model.Date
	DateTo     model.Date
	SortBy     string
	Limit      int
	Offset     int
}

type HistoryItem struct {
	model.BookingDetail
	CanModify bool `json:"can_modify"`
	CanCancel bool `json:"can_cancel"`
	IsPast    bool `json:"is_past"`
	CanReview bool `json:"can_review"`
}

type HistoryPage struct {
	Bookings []HistoryItem `json:"bookings"`
	Total    int           `json:"total"`
	Offset   int           `json:"offset"`
	Limit    int           `json:"limit"`
	HasMore  bool          `json:"has_more"`
}

type BookingStats struct {
	TotalBookings      int            `json:"total_bookings"`
	ConfirmedBookings  int            `json:"confirmed_bookings"`
	CancelledBookings  int            `json:"cancelled_bookings"`
	CompletedBookings  int            `json:"completed_bookings"`
	UpcomingBookings   int            `json:"upcoming_bookings"`
	FavoriteRestaurant *string        `json:"favorite_restaurant"`
	UniqueRestaurants  int            `json:"unique_restaurants"`
	StatusBreakdown    map[string]int `json:"status_breakdown"`
}

type UpcomingBooking struct {
	model.BookingDetail
	DaysUntil  int  `json:"days_until"`
	IsToday    bool `json:"is_today"`
	IsTomorrow bool `json:"is_tomorrow"`
}

type DateRange struct {
	From model.Date `json:"from"`
	To   model.Date `json:"to"`
	Days int        `json:"days"`
}

type UpcomingResult struct {
	Bookings  []UpcomingBooking `json:"upcoming_bookings"`
	Total     int               `json:"total"`
	DateRange DateRange         `json:"date_range"`
}

type FilterOptions struct {
	Restaurants []string     `json:"restaurants"`
	Statuses    []string     `json:"statuses"`
	SortOptions []SortOption `json:"sort_options"`
}

// History returns one page of the user's bookings matching f, with flags
// telling the client which actions apply to each.
func (s *BookingService) History(ctx context.Context, user model.User, f BookingFilter) (HistoryPage, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultHistoryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	all, err := s.bookings.ListForUser(ctx, user.ID)
	if err != nil {
		return HistoryPage{}, apperror.Internal(err)
	}
	reviewed, err := s.reviews.ReviewedBookingIDs(ctx, user.ID)
	if err != nil {
		return HistoryPage{}, apperror.Internal(err)
	}

	matched := filterBookings(all, f)
	sortBookings(matched, f.SortBy)

	page := HistoryPage{Bookings: []HistoryItem{}, Total: len(matched), Offset: f.Offset, Limit: f.Limit}
	today := model.DateOf(s.now())
	for i := f.Offset; i < len(matched) && i < f.Offset+f.Limit; i++ {
		b := matched[i]
		page.Bookings = append(page.Bookings, HistoryItem{
			BookingDetail: b,
			CanModify:     b.VisitDate.After(today),
			CanCancel:     b.Status == model.StatusConfirmed || b.Status == model.StatusPending,
			IsPast:        b.VisitDate.Before(today),
			CanReview:     b.Status == model.StatusCompleted && !reviewed[b.ID],
		})
	}
	page.HasMore = f.Offset+len(page.Bookings) < page.Total
	return page, nil
}

func filterBookings(all []model.BookingDetail, f BookingFilter) []model.BookingDetail {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	status := strings.ToLower(strings.TrimSpace(f.Status))
	restaurant := strings.ToLower(strings.TrimSpace(f.Restaurant))

	out := make([]model.BookingDetail, 0, len(all))
	for _, b := range all {
		if search != "" && !containsFold(search, b.Reference, b.RestaurantName, b.Customer.FirstName, b.Customer.Surname) {
			continue
		}
		if status != "" && string(b.Status) != status {
			continue
		}
		if restaurant != "" && !containsFold(restaurant, b.RestaurantName) {
			continue
		}
		if !f.DateFrom.IsZero() && b.VisitDate.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && b.VisitDate.After(f.DateTo) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// containsFold reports whether any of vals contains the lower-cased needle.
func containsFold(needle string, vals ...string) bool {
	for _, v := range vals {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func sortBookings(list []model.BookingDetail, by string) {
	newestFirst := func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.VisitDate.Equal(b.VisitDate) {
			return a.VisitDate.After(b.VisitDate)
		}
		return b.VisitTime.Before(a.VisitTime)
	}
	switch by {
	case SortDateAsc:
		sort.SliceStable(list, func(i, j int) bool { return newestFirst(j, i) })
	case SortRestaurant:
		sort.SliceStable(list, newestFirst)
		sort.SliceStable(list, func(i, j int) bool { return list[i].RestaurantName < list[j].RestaurantName })
	case SortStatus:
		sort.SliceStable(list, newestFirst)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Status < list[j].Status })
	default:
		sort.SliceStable(list, newestFirst)
	}
}

// Stats summarises the user's bookings. Ties for favourite restaurant go
// to the alphabetically first name.
func (s *BookingService) Stats(ctx context.Context, user model.User) (BookingStats, error) {
	all, err := s.bookings.ListForUser(ctx, user.ID)
	if err != nil {
		return BookingStats{}, apperror.Internal(err)
	}
	today := model.DateOf(s.now())
	st := BookingStats{TotalBookings: len(all), StatusBreakdown: map[string]int{}}
	for _, status := range model.AllStatuses {
		st.StatusBreakdown[string(status)] = 0
	}
	perRestaurant := map[string]int{}
	for _, b := range all {
		st.StatusBreakdown[string(b.Status)]++
		if b.Status == model.StatusConfirmed && !b.VisitDate.Before(today) {
			st.UpcomingBookings++
		}
		perRestaurant[b.RestaurantName]++
	}
	st.ConfirmedBookings = st.StatusBreakdown[string(model.StatusConfirmed)]
	st.CancelledBookings = st.StatusBreakdown[string(model.StatusCancelled)]
	st.CompletedBookings = st.StatusBreakdown[string(model.StatusCompleted)]
	st.UniqueRestaurants = len(perRestaurant)

	best, bestN := "", 0
	for name, n := range perRestaurant {
		if n > bestN || (n == bestN && name < best) {
			best, bestN = name, n
		}
	}
	if bestN > 0 {
		st.FavoriteRestaurant = &best
	}
	return st, nil
}

// Upcoming returns the user's confirmed and pending bookings from today
// through today+daysAhead, soonest first.
func (s *BookingService) Upcoming(ctx context.Context, user model.User, daysAhead int) (UpcomingResult, error) {
	if daysAhead < 0 || daysAhead > maxUpcomingDays {
		return UpcomingResult{}, apperror.InvalidInput("days_ahead must be between 0 and 365")
	}
	all, err := s.bookings.ListForUser(ctx, user.ID)
	if err != nil {
		return UpcomingResult{}, apperror.Internal(err)
	}
	today := model.DateOf(s.now())
	end := today.AddDays(daysAhead)

	list := make([]model.BookingDetail, 0)
	for _, b := range all {
		if b.Status != model.StatusConfirmed && b.Status != model.StatusPending {
			continue
		}
		if b.VisitDate.Before(today) || b.VisitDate.After(end) {
			continue
		}
		list = append(list, b)
	}
	sortBookings(list, SortDateAsc)

	res := UpcomingResult{
		Bookings:  make([]UpcomingBooking, 0, len(list)),
		DateRange: DateRange{From: today, To: end, Days: daysAhead},
	}
	for _, b := range list {
		days := b.VisitDate.DaysSince(today)
		res.Bookings = append(res.Bookings, UpcomingBooking{
			BookingDetail: b,
			DaysUntil:     days,
			IsToday:       days == 0,
			IsTomorrow:    days == 1,
		})
	}
	res.Total = len(res.Bookings)
	return res, nil
}

// FilterOptions lists the restaurants and statuses present in the user's
// bookings, sorted, along with the supported sort orders.
func (s *BookingService) FilterOptions(ctx context.Context, user model.User) (FilterOptions, error) {
	all, err := s.bookings.ListForUser(ctx, user.ID)
	if err != nil {
		return FilterOptions{}, apperror.Internal(err)
	}
	restaurants := map[string]bool{}
	statuses := map[string]bool{}
	for _, b := range all {
		restaurants[b.RestaurantName] = true
		statuses[string(b.Status)] = true
	}
	return FilterOptions{
		Restaurants: sortedKeys(restaurants),
		Statuses:    sortedKeys(statuses),
		SortOptions: SortOptions,
	}, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
