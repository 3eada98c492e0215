package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

type Reviews struct{ s *Store }

func (r *Reviews) Create(_ context.Context, rv *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.reviews {
		if existing.UserID == rv.UserID && existing.BookingID == rv.BookingID {
			return repository.ErrConflict
		}
	}
	rv.ID = r.s.id()
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now().UTC()
	}
	r.s.st.reviews[rv.ID] = *rv
	return nil
}

func (r *Reviews) ListByRestaurant(_ context.Context, restaurantID uint64, f model.ReviewFilter) ([]model.ReviewDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []model.ReviewDetail
	for _, rv := range r.s.st.reviews {
		if rv.RestaurantID == restaurantID && rv.IsPublished && rv.Rating >= f.MinRating {
			list = append(list, r.detail(rv))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		var less, equal bool
		if f.SortBy == "rating" {
			less, equal = a.Rating < b.Rating, a.Rating == b.Rating
		} else {
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			return a.ID > b.ID
		}
		if f.Order == "asc" {
			return less
		}
		return !less
	})
	if f.Offset >= len(list) {
		return []model.ReviewDetail{}, nil
	}
	list = list[f.Offset:]
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func (r *Reviews) ListByUser(_ context.Context, userID uint64) ([]model.ReviewDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := []model.ReviewDetail{}
	for _, rv := range r.s.st.reviews {
		if rv.UserID == userID {
			list = append(list, r.detail(rv))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (r *Reviews) GetByBookingForUser(_ context.Context, ref string, userID uint64) (model.ReviewDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.st.reviews {
		if rv.BookingReference == ref && rv.UserID == userID {
			return r.detail(rv), nil
		}
	}
	return model.ReviewDetail{}, repository.ErrNotFound
}

func (r *Reviews) ReviewedBookingIDs(_ context.Context, userID uint64) (map[uint64]bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[uint64]bool{}
	for _, rv := range r.s.st.reviews {
		if rv.UserID == userID {
			out[rv.BookingID] = true
		}
	}
	return out, nil
}

func (r *Reviews) Ratings(_ context.Context, restaurantID uint64) ([]model.RatingSample, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.RatingSample{}
	for _, rv := range r.s.st.reviews {
		if rv.RestaurantID == restaurantID && rv.IsPublished {
			out = append(out, model.RatingSample{Rating: rv.Rating, WouldRecommend: rv.WouldRecommend})
		}
	}
	return out, nil
}

// detail must be called with mu held.
func (r *Reviews) detail(rv model.Review) model.ReviewDetail {
	u := r.s.st.users[rv.UserID]
	return model.ReviewDetail{
		Review:         rv,
		UserName:       model.DisplayName(u.FirstName, u.LastName),
		RestaurantName: r.s.st.restaurants[rv.RestaurantID].Name,
	}
}
