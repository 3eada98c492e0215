package memstore

import (
	"context"
	"slices"
	"sort"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

type Restaurants struct{ s *Store }

func (r *Restaurants) GetByID(_ context.Context, id uint64) (model.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rest, ok := r.s.st.restaurants[id]
	if !ok || !rest.IsActive {
		return model.Restaurant{}, repository.ErrNotFound
	}
	return rest, nil
}

// GetByName matches the display name or the microsite name.
func (r *Restaurants) GetByName(_ context.Context, name string) (model.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rest := range r.sorted() {
		if rest.IsActive && (rest.Name == name || rest.MicrositeName == name) {
			return rest, nil
		}
	}
	return model.Restaurant{}, repository.ErrNotFound
}

// Search applies the same filters as the SQL repository, ordered by id.
func (r *Restaurants) Search(_ context.Context, f model.RestaurantFilter) ([]model.Restaurant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []model.Restaurant
	for _, rest := range r.sorted() {
		if matches(rest, f) {
			matched = append(matched, rest)
		}
	}
	if f.Offset >= len(matched) {
		return []model.Restaurant{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func matches(r model.Restaurant, f model.RestaurantFilter) bool {
	if !r.IsActive {
		return false
	}
	if f.Cuisine != "" && !containsFold(r.CuisineType, f.Cuisine) {
		return false
	}
	if f.Location != "" && !containsFold(r.Location, f.Location) {
		return false
	}
	if f.PriceRange != "" && r.PriceRange != f.PriceRange {
		return false
	}
	if f.MinRating > 0 && r.AverageRating < f.MinRating {
		return false
	}
	if f.Search != "" && !containsFold(r.Name, f.Search) && !containsFold(r.Description, f.Search) &&
		!containsFold(r.CuisineType, f.Search) {
		return false
	}
	for _, want := range f.Features {
		if !slices.Contains(r.Features, want) {
			return false
		}
	}
	for _, want := range f.DietaryOptions {
		if !slices.Contains(r.DietaryOptions, want) {
			return false
		}
	}
	return true
}

func (r *Restaurants) Cuisines(context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.distinct(func(rest model.Restaurant) string { return rest.CuisineType }), nil
}

func (r *Restaurants) Locations(context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.distinct(func(rest model.Restaurant) string { return rest.Location }), nil
}

func (r *Restaurants) UpdateRating(_ context.Context, id uint64, average float64, total int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rest, ok := r.s.st.restaurants[id]
	if !ok {
		return repository.ErrNotFound
	}
	rest.AverageRating, rest.TotalReviews = average, total
	r.s.st.restaurants[id] = rest
	return nil
}

func (r *Restaurants) distinct(col func(model.Restaurant) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, rest := range r.s.st.restaurants {
		v := col(rest)
		if rest.IsActive && v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Restaurants) sorted() []model.Restaurant {
	out := make([]model.Restaurant, 0, len(r.s.st.restaurants))
	for _, rest := range r.s.st.restaurants {
		out = append(out, rest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Slots struct{ s *Store }

func (sl *Slots) ListForDate(_ context.Context, restaurantID uint64, date model.Date, minPartySize int) ([]model.AvailabilitySlot, error) {
	sl.s.mu.Lock()
	defer sl.s.mu.Unlock()
	var out []model.AvailabilitySlot
	for _, slot := range sl.s.st.slots {
		if slot.RestaurantID == restaurantID && slot.Date.Equal(date) && slot.MaxPartySize >= minPartySize {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// LockSlot returns the slot. Units of work are already serialised by
// WithTx, so no row lock is needed.
func (sl *Slots) LockSlot(_ context.Context, restaurantID uint64, date model.Date, at model.TimeOfDay) (model.AvailabilitySlot, error) {
	sl.s.mu.Lock()
	defer sl.s.mu.Unlock()
	for _, slot := range sl.s.st.slots {
		if slot.RestaurantID == restaurantID && slot.Date.Equal(date) && slot.Time == at {
			return slot, nil
		}
	}
	return model.AvailabilitySlot{}, repository.ErrNotFound
}

type Reasons struct{ s *Store }

func (r *Reasons) Get(_ context.Context, id int64) (model.CancellationReason, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reason := range r.s.st.reasons {
		if reason.ID == id {
			return reason, nil
		}
	}
	return model.CancellationReason{}, repository.ErrNotFound
}

func (r *Reasons) List(context.Context) ([]model.CancellationReason, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.st.reasons), nil
}
