package service

import (
	"context"
	"strings"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const (
	DefaultRestaurantLimit = 10
	MaxRestaurantLimit     = 100
	recentReviewCount      = 5
)

type RestaurantPage struct {
	Restaurants []model.Restaurant `json:"restaurants"`
	Total       int                `json:"total"`
	Offset      int                `json:"offset"`
	Limit       int                `json:"limit"`
}

// RestaurantDetail is a restaurant with its latest published reviews.
type RestaurantDetail struct {
	model.Restaurant
	RecentReviews []model.ReviewDetail `json:"recent_reviews"`
}

type RestaurantService struct {
	restaurants RestaurantStore
	reviews     ReviewStore
}

func NewRestaurantService(restaurants RestaurantStore, reviews ReviewStore) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, reviews: reviews}
}

// List returns active restaurants matching f. Total counts the returned
// page.
func (s *RestaurantService) List(ctx context.Context, f model.RestaurantFilter) (RestaurantPage, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultRestaurantLimit
	}
	if f.Limit > MaxRestaurantLimit {
		f.Limit = MaxRestaurantLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return RestaurantPage{}, apperror.Validation("min_rating must be between 0 and 5", map[string]any{"min_rating": f.MinRating})
	}
	f.Features = cleanList(f.Features)
	f.DietaryOptions = cleanList(f.DietaryOptions)

	list, err := s.restaurants.Search(ctx, f)
	if err != nil {
		return RestaurantPage{}, apperror.Internal(err)
	}
	if list == nil {
		list = []model.Restaurant{}
	}
	return RestaurantPage{Restaurants: list, Total: len(list), Offset: f.Offset, Limit: f.Limit}, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uint64) (RestaurantDetail, error) {
	r, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return RestaurantDetail{}, restaurantErr(err)
	}
	recent, err := s.reviews.ListByRestaurant(ctx, r.ID, model.ReviewFilter{SortBy: "created_at", Order: "desc", Limit: recentReviewCount})
	if err != nil {
		return RestaurantDetail{}, apperror.Internal(err)
	}
	if recent == nil {
		recent = []model.ReviewDetail{}
	}
	return RestaurantDetail{Restaurant: r, RecentReviews: recent}, nil
}

func (s *RestaurantService) Cuisines(ctx context.Context) ([]string, error) {
	out, err := s.restaurants.Cuisines(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return nonNil(out), nil
}

func (s *RestaurantService) Locations(ctx context.Context) ([]string, error) {
	out, err := s.restaurants.Locations(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return nonNil(out), nil
}

func (s *RestaurantService) PriceRanges() []model.PriceRange { return model.PriceRanges }

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
