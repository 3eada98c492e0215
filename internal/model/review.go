package model

import "time"

// Review is a guest's rating of a visit. A user may review each booking
// once.
type Review struct {
	ID               uint64    `db:"id" json:"id"`
	UserID           uint64    `db:"user_id" json:"user_id"`
	RestaurantID     uint64    `db:"restaurant_id" json:"restaurant_id"`
	BookingID        uint64    `db:"booking_id" json:"booking_id"`
	BookingReference string    `db:"booking_reference" json:"booking_reference"`
	Rating           int       `db:"rating" json:"rating"`
	Title            string    `db:"title" json:"title"`
	ReviewText       string    `db:"review_text" json:"review_text"`
	FoodRating       *int      `db:"food_rating" json:"food_rating"`
	ServiceRating    *int      `db:"service_rating" json:"service_rating"`
	AmbianceRating   *int      `db:"ambiance_rating" json:"ambiance_rating"`
	ValueRating      *int      `db:"value_rating" json:"value_rating"`
	WouldRecommend   bool      `db:"would_recommend" json:"would_recommend"`
	IsVerified       bool      `db:"is_verified" json:"is_verified"`
	IsPublished      bool      `db:"is_published" json:"is_published"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ReviewDetail is a review joined with its author and restaurant names.
type ReviewDetail struct {
	Review
	UserName       string `json:"user_name"`
	RestaurantName string `json:"restaurant_name"`
}

// ReviewFilter controls a restaurant review listing. SortBy is
// "created_at" or "rating"; Order is "asc" or "desc".
type ReviewFilter struct {
	SortBy    string
	Order     string
	MinRating int
	Limit     int
	Offset    int
}

// RatingSample is the part of a review that feeds restaurant aggregates.
type RatingSample struct {
	Rating         int  `db:"rating"`
	WouldRecommend bool `db:"would_recommend"`
}

// RatingSummary aggregates the published reviews of a restaurant.
type RatingSummary struct {
	AverageRating            float64     `json:"average_rating"`
	TotalReviews             int         `json:"total_reviews"`
	RatingDistribution       map[int]int `json:"rating_distribution"`
	RecommendationPercentage float64     `json:"recommendation_percentage"`
}

// DisplayName renders a reviewer as "First L.", or "Anonymous" when no
// first name is on file.
func DisplayName(first, last string) string {
	if first == "" {
		return "Anonymous"
	}
	if last == "" {
		return first
	}
	r := []rune(last)
	return first + " " + string(r[0]) + "."
}
