package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const reviewDetailSelect = `SELECT v.id, v.user_id, v.restaurant_id, v.booking_id, v.booking_reference,
	v.rating, v.title, v.review_text, v.food_rating, v.service_rating, v.ambiance_rating, v.value_rating,
	v.would_recommend, v.is_verified, v.is_published, v.created_at,
	u.first_name AS user_first_name, u.last_name AS user_last_name, r.name AS restaurant_name
	FROM restaurant_reviews v
	JOIN users u ON u.id = v.user_id
	JOIN restaurants r ON r.id = v.restaurant_id`

type reviewRow struct {
	model.Review
	UserFirstName  string `db:"user_first_name"`
	UserLastName   string `db:"user_last_name"`
	RestaurantName string `db:"restaurant_name"`
}

func (row reviewRow) detail() model.ReviewDetail {
	return model.ReviewDetail{
		Review:         row.Review,
		UserName:       model.DisplayName(row.UserFirstName, row.UserLastName),
		RestaurantName: row.RestaurantName,
	}
}

func reviewDetails(rows []reviewRow) []model.ReviewDetail {
	out := make([]model.ReviewDetail, len(rows))
	for i, row := range rows {
		out[i] = row.detail()
	}
	return out
}

type ReviewRepo struct{ db *database.DB }

func NewReviewRepo(db *database.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts rv. A second review of the same booking by the same user
// is ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	id, err := database.InsertID(ctx, r.db.Ext(ctx), `INSERT INTO restaurant_reviews
		(user_id, restaurant_id, booking_id, booking_reference, rating, title, review_text,
		 food_rating, service_rating, ambiance_rating, value_rating, would_recommend,
		 is_verified, is_published, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rv.UserID, rv.RestaurantID, rv.BookingID, rv.BookingReference, rv.Rating, rv.Title, rv.ReviewText,
		rv.FoodRating, rv.ServiceRating, rv.AmbianceRating, rv.ValueRating, rv.WouldRecommend,
		rv.IsVerified, rv.IsPublished, now)
	if err != nil {
		return conflict(err, nil)
	}
	rv.ID, rv.CreatedAt = id, now
	return nil
}

// ListByRestaurant returns published reviews of a restaurant.
func (r *ReviewRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, f model.ReviewFilter) ([]model.ReviewDetail, error) {
	order := "v.created_at"
	if f.SortBy == "rating" {
		order = "v.rating"
	}
	if f.Order == "asc" {
		order += " ASC"
	} else {
		order += " DESC"
	}
	q := r.db.Ext(ctx)
	var rows []reviewRow
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(reviewDetailSelect+
		" WHERE v.restaurant_id = ? AND v.is_published = ? AND v.rating >= ?"+
		" ORDER BY "+order+", v.id DESC LIMIT ? OFFSET ?"),
		restaurantID, true, f.MinRating, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return reviewDetails(rows), nil
}

// ListByUser returns every review written by userID, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ReviewDetail, error) {
	q := r.db.Ext(ctx)
	var rows []reviewRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(reviewDetailSelect+
		" WHERE v.user_id = ? ORDER BY v.created_at DESC, v.id DESC"), userID); err != nil {
		return nil, err
	}
	return reviewDetails(rows), nil
}

// GetByBookingForUser returns userID's review of the booking with ref.
func (r *ReviewRepo) GetByBookingForUser(ctx context.Context, ref string, userID uint64) (model.ReviewDetail, error) {
	q := r.db.Ext(ctx)
	var row reviewRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(reviewDetailSelect+
		" WHERE v.booking_reference = ? AND v.user_id = ? LIMIT 1"), ref, userID)
	if err != nil {
		return model.ReviewDetail{}, notFound(err)
	}
	return row.detail(), nil
}

// ReviewedBookingIDs returns the ids of the bookings userID has reviewed.
func (r *ReviewRepo) ReviewedBookingIDs(ctx context.Context, userID uint64) (map[uint64]bool, error) {
	q := r.db.Ext(ctx)
	var ids []uint64
	if err := sqlx.SelectContext(ctx, q, &ids, q.Rebind(
		"SELECT booking_id FROM restaurant_reviews WHERE user_id = ?"), userID); err != nil {
		return nil, err
	}
	out := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// Ratings returns the rating and recommendation of each published review
// of a restaurant.
func (r *ReviewRepo) Ratings(ctx context.Context, restaurantID uint64) ([]model.RatingSample, error) {
	q := r.db.Ext(ctx)
	samples := []model.RatingSample{}
	err := sqlx.SelectContext(ctx, q, &samples, q.Rebind(
		"SELECT rating, would_recommend FROM restaurant_reviews WHERE restaurant_id = ? AND is_published = ?"),
		restaurantID, true)
	return samples, err
}
