package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

const (
	DefaultReviewLimit = 20
	MaxReviewLimit     = 100
)

type ReviewInput struct {
	BookingReference string
	Rating           int
	Title            string
	ReviewText       string
	FoodRating       *int
	ServiceRating    *int
	AmbianceRating   *int
	ValueRating      *int
	// WouldRecommend defaults to true when nil.
	WouldRecommend *bool
}

type ReviewSummary struct {
	RestaurantName string `json:"restaurant_name"`
	model.RatingSummary
}

type ReviewService struct {
	tx          TxRunner
	restaurants RestaurantStore
	bookings    BookingStore
	reviews     ReviewStore
	now         Clock
}

func NewReviewService(tx TxRunner, restaurants RestaurantStore, bookings BookingStore, reviews ReviewStore) *ReviewService {
	return &ReviewService{tx: tx, restaurants: restaurants, bookings: bookings, reviews: reviews, now: utcNow}
}

// WithClock replaces the time source, for tests.
func (s *ReviewService) WithClock(now Clock) *ReviewService {
	s.now = now
	return s
}

// Create records user's review of one of their past visits and refreshes
// the restaurant's rating aggregate in the same transaction.
func (s *ReviewService) Create(ctx context.Context, user model.User, in ReviewInput) (model.Review, error) {
	if err := validateRatings(in); err != nil {
		return model.Review{}, err
	}
	recommend := true
	if in.WouldRecommend != nil {
		recommend = *in.WouldRecommend
	}

	var rv model.Review
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByReferenceForUser(ctx, strings.TrimSpace(in.BookingReference), user.ID)
		if err != nil {
			return bookingErr(err)
		}
		if b.VisitAt().After(s.now()) {
			return apperror.InvalidInput("you can only review past bookings")
		}
		if b.Status != model.StatusCompleted {
			return apperror.InvalidInput("a " + string(b.Status) + " booking cannot be reviewed")
		}

		rv = model.Review{
			UserID:           user.ID,
			RestaurantID:     b.RestaurantID,
			BookingID:        b.ID,
			BookingReference: b.Reference,
			Rating:           in.Rating,
			Title:            strings.TrimSpace(in.Title),
			ReviewText:       strings.TrimSpace(in.ReviewText),
			FoodRating:       in.FoodRating,
			ServiceRating:    in.ServiceRating,
			AmbianceRating:   in.AmbianceRating,
			ValueRating:      in.ValueRating,
			WouldRecommend:   recommend,
			IsVerified:       true,
			IsPublished:      true,
		}
		if err := s.reviews.Create(ctx, &rv); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperror.Conflict("you have already reviewed this booking")
			}
			return apperror.Internal(err)
		}

		samples, err := s.reviews.Ratings(ctx, b.RestaurantID)
		if err != nil {
			return apperror.Internal(err)
		}
		sum := Summarize(samples)
		if err := s.restaurants.UpdateRating(ctx, b.RestaurantID, sum.AverageRating, sum.TotalReviews); err != nil {
			return apperror.Internal(err)
		}
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}
	zerolog.Ctx(ctx).Info().Str("booking_reference", rv.BookingReference).Uint64("user_id", user.ID).
		Msg("review created")
	return rv, nil
}

// ListForRestaurant returns the published reviews of the named restaurant.
func (s *ReviewService) ListForRestaurant(ctx context.Context, restaurantName string, f model.ReviewFilter) ([]model.ReviewDetail, error) {
	if f.SortBy != "rating" {
		f.SortBy = "created_at"
	}
	if f.Order != "asc" {
		f.Order = "desc"
	}
	if f.Limit <= 0 {
		f.Limit = DefaultReviewLimit
	}
	if f.Limit > MaxReviewLimit {
		f.Limit = MaxReviewLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return nil, apperror.Validation("min_rating must be between 0 and 5", map[string]any{"min_rating": f.MinRating})
	}
	r, err := s.restaurants.GetByName(ctx, restaurantName)
	if err != nil {
		return nil, restaurantErr(err)
	}
	list, err := s.reviews.ListByRestaurant(ctx, r.ID, f)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if list == nil {
		list = []model.ReviewDetail{}
	}
	return list, nil
}

func (s *ReviewService) Summary(ctx context.Context, restaurantName string) (ReviewSummary, error) {
	r, err := s.restaurants.GetByName(ctx, restaurantName)
	if err != nil {
		return ReviewSummary{}, restaurantErr(err)
	}
	samples, err := s.reviews.Ratings(ctx, r.ID)
	if err != nil {
		return ReviewSummary{}, apperror.Internal(err)
	}
	return ReviewSummary{RestaurantName: restaurantName, RatingSummary: Summarize(samples)}, nil
}

func (s *ReviewService) ListForUser(ctx context.Context, user model.User) ([]model.ReviewDetail, error) {
	list, err := s.reviews.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if list == nil {
		list = []model.ReviewDetail{}
	}
	return list, nil
}

// ForBooking returns user's review of the booking with ref, or nil when
// there is none.
func (s *ReviewService) ForBooking(ctx context.Context, user model.User, ref string) (*model.ReviewDetail, error) {
	rv, err := s.reviews.GetByBookingForUser(ctx, ref, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &rv, nil
}

// Summarize aggregates review samples. Averages and percentages are
// rounded to one decimal; the distribution always has keys 1 through 5.
func Summarize(samples []model.RatingSample) model.RatingSummary {
	sum := model.RatingSummary{RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(samples) == 0 {
		return sum
	}
	total, recommended := 0, 0
	for _, s := range samples {
		total += s.Rating
		sum.RatingDistribution[s.Rating]++
		if s.WouldRecommend {
			recommended++
		}
	}
	n := float64(len(samples))
	sum.TotalReviews = len(samples)
	sum.AverageRating = round1(float64(total) / n)
	sum.RecommendationPercentage = round1(float64(recommended) / n * 100)
	return sum
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func validateRatings(in ReviewInput) error {
	details := map[string]any{}
	if in.Rating < 1 || in.Rating > 5 {
		details["rating"] = "must be between 1 and 5"
	}
	for name, v := range map[string]*int{
		"food_rating":     in.FoodRating,
		"service_rating":  in.ServiceRating,
		"ambiance_rating": in.AmbianceRating,
		"value_rating":    in.ValueRating,
	} {
		if v != nil && (*v < 1 || *v > 5) {
			details[name] = "must be between 1 and 5"
		}
	}
	if strings.TrimSpace(in.BookingReference) == "" {
		details["booking_reference"] = "required"
	}
	if len(details) > 0 {
		return apperror.Validation("invalid review", details)
	}
	return nil
}
