package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const restaurantColumns = `r.id, r.name, r.microsite_name, r.description, r.cuisine_type, r.location,
	r.address, r.phone, r.email, r.website, r.price_range, r.average_rating, r.total_reviews,
	r.max_party_size, r.accepts_reservations, r.is_active, r.created_at`

type RestaurantRepo struct{ db *database.DB }

func NewRestaurantRepo(db *database.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

// GetByID returns an active restaurant with its features, dietary options
// and opening hours.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (model.Restaurant, error) {
	return r.getOne(ctx, "r.id = ?", id)
}

// GetByName looks a restaurant up by display name or microsite name.
func (r *RestaurantRepo) GetByName(ctx context.Context, name string) (model.Restaurant, error) {
	return r.getOne(ctx, "(r.name = ? OR r.microsite_name = ?)", name, name)
}

func (r *RestaurantRepo) getOne(ctx context.Context, where string, args ...any) (model.Restaurant, error) {
	q := r.db.Ext(ctx)
	var rest model.Restaurant
	err := sqlx.GetContext(ctx, q, &rest, q.Rebind(
		"SELECT "+restaurantColumns+" FROM restaurants r WHERE "+where+" AND r.is_active = ? LIMIT 1"),
		append(args, true)...)
	if err != nil {
		return model.Restaurant{}, notFound(err)
	}
	list := []model.Restaurant{rest}
	if err := r.attach(ctx, q, list); err != nil {
		return model.Restaurant{}, err
	}
	return list[0], nil
}

// Search lists active restaurants matching f, ordered by id.
func (r *RestaurantRepo) Search(ctx context.Context, f model.RestaurantFilter) ([]model.Restaurant, error) {
	where := []string{"r.is_active = ?"}
	args := []any{true}
	like := func(s string) string { return "%" + strings.ToLower(strings.TrimSpace(s)) + "%" }

	if f.Cuisine != "" {
		where = append(where, "LOWER(r.cuisine_type) LIKE ?")
		args = append(args, like(f.Cuisine))
	}
	if f.Location != "" {
		where = append(where, "LOWER(r.location) LIKE ?")
		args = append(args, like(f.Location))
	}
	if f.PriceRange != "" {
		where = append(where, "r.price_range = ?")
		args = append(args, f.PriceRange)
	}
	if f.MinRating > 0 {
		where = append(where, "r.average_rating >= ?")
		args = append(args, f.MinRating)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(r.name) LIKE ? OR LOWER(r.description) LIKE ? OR LOWER(r.cuisine_type) LIKE ?)")
		s := like(f.Search)
		args = append(args, s, s, s)
	}
	for _, feat := range f.Features {
		where = append(where, "EXISTS (SELECT 1 FROM restaurant_features rf WHERE rf.restaurant_id = r.id AND rf.feature = ?)")
		args = append(args, feat)
	}
	for _, opt := range f.DietaryOptions {
		where = append(where, "EXISTS (SELECT 1 FROM restaurant_dietary_options rd WHERE rd.restaurant_id = r.id AND rd.dietary_option = ?)")
		args = append(args, opt)
	}
	args = append(args, f.Limit, f.Offset)

	q := r.db.Ext(ctx)
	var list []model.Restaurant
	err := sqlx.SelectContext(ctx, q, &list, q.Rebind(
		"SELECT "+restaurantColumns+" FROM restaurants r WHERE "+strings.Join(where, " AND ")+
			" ORDER BY r.id LIMIT ? OFFSET ?"), args...)
	if err != nil {
		return nil, err
	}
	if err := r.attach(ctx, q, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Cuisines returns the distinct cuisine types of active restaurants.
func (r *RestaurantRepo) Cuisines(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "cuisine_type")
}

// Locations returns the distinct locations of active restaurants.
func (r *RestaurantRepo) Locations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "location")
}

func (r *RestaurantRepo) distinct(ctx context.Context, col string) ([]string, error) {
	q := r.db.Ext(ctx)
	out := []string{}
	err := sqlx.SelectContext(ctx, q, &out, q.Rebind(
		"SELECT DISTINCT "+col+" FROM restaurants WHERE is_active = ? AND "+col+" <> '' ORDER BY "+col), true)
	return out, err
}

// UpdateRating stores a recomputed rating aggregate.
func (r *RestaurantRepo) UpdateRating(ctx context.Context, id uint64, average float64, total int) error {
	q := r.db.Ext(ctx)
	_, err := q.ExecContext(ctx, q.Rebind(
		"UPDATE restaurants SET average_rating = ?, total_reviews = ? WHERE id = ?"), average, total, id)
	return err
}

// attach loads the child rows of every restaurant in list in three queries.
func (r *RestaurantRepo) attach(ctx context.Context, q sqlx.ExtContext, list []model.Restaurant) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint64, len(list))
	index := make(map[uint64]*model.Restaurant, len(list))
	for i := range list {
		ids[i] = list[i].ID
		list[i].Features = []string{}
		list[i].DietaryOptions = []string{}
		list[i].OpeningHours = map[string]string{}
		index[list[i].ID] = &list[i]
	}

	var features []struct {
		RestaurantID uint64 `db:"restaurant_id"`
		Value        string `db:"feature"`
	}
	if err := selectIn(ctx, q, &features,
		"SELECT restaurant_id, feature FROM restaurant_features WHERE restaurant_id IN (?) ORDER BY restaurant_id, feature", ids); err != nil {
		return err
	}
	for _, f := range features {
		index[f.RestaurantID].Features = append(index[f.RestaurantID].Features, f.Value)
	}

	var options []struct {
		RestaurantID uint64 `db:"restaurant_id"`
		Value        string `db:"dietary_option"`
	}
	if err := selectIn(ctx, q, &options,
		"SELECT restaurant_id, dietary_option FROM restaurant_dietary_options WHERE restaurant_id IN (?) ORDER BY restaurant_id, dietary_option", ids); err != nil {
		return err
	}
	for _, o := range options {
		index[o.RestaurantID].DietaryOptions = append(index[o.RestaurantID].DietaryOptions, o.Value)
	}

	var hours []struct {
		RestaurantID uint64 `db:"restaurant_id"`
		Day          string `db:"day_of_week"`
		Hours        string `db:"opening_hours"`
	}
	if err := selectIn(ctx, q, &hours,
		"SELECT restaurant_id, day_of_week, opening_hours FROM restaurant_opening_hours WHERE restaurant_id IN (?)", ids); err != nil {
		return err
	}
	for _, h := range hours {
		index[h.RestaurantID].OpeningHours[h.Day] = h.Hours
	}
	return nil
}

// selectIn expands the IN (?) of query for ids and rebinds it.
func selectIn(ctx context.Context, q sqlx.ExtContext, dest any, query string, ids []uint64) error {
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}
