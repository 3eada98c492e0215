package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// SeedOptions controls slot generation. Zero values take defaults.
type SeedOptions struct {
	Days      int        // days of slots from Start, default 365
	Start     model.Date // first slot day, default today (UTC)
	OpenRatio float64    // probability a slot is open, default 0.85
	Rand      *rand.Rand
}

func (o SeedOptions) withDefaults() SeedOptions {
	if o.Days <= 0 {
		o.Days = 365
	}
	if o.Start.IsZero() {
		o.Start = model.DateOf(time.Now().UTC())
	}
	if o.OpenRatio <= 0 {
		o.OpenRatio = 0.85
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	return o
}

// CancellationReasons is the fixed reason list, in id order.
var CancellationReasons = []model.CancellationReason{
	{ID: 1, Reason: "Customer Request", Description: "Customer requested cancellation"},
	{ID: 2, Reason: "Restaurant Closure", Description: "Restaurant temporarily closed"},
	{ID: 3, Reason: "Weather", Description: "Cancelled due to weather conditions"},
	{ID: 4, Reason: "Emergency", Description: "Emergency cancellation"},
	{ID: 5, Reason: "No Show", Description: "Customer did not show up"},
}

// SlotTimes returns the daily slot start times for a cuisine.
func SlotTimes(cuisine string) []model.TimeOfDay {
	t := model.NewTimeOfDay
	switch cuisine {
	case "Japanese":
		return []model.TimeOfDay{t(17, 30), t(18, 0), t(18, 30), t(19, 0), t(19, 30), t(20, 0), t(20, 30), t(21, 0)}
	case "Healthy/Organic":
		return []model.TimeOfDay{t(8, 0), t(9, 0), t(10, 0), t(11, 0), t(12, 0), t(13, 0), t(14, 0), t(18, 0), t(19, 0), t(20, 0)}
	default:
		return []model.TimeOfDay{t(12, 0), t(12, 30), t(13, 0), t(13, 30), t(19, 0), t(19, 30), t(20, 0), t(20, 30)}
	}
}

func weekHours(weekday, friday, saturday, sunday string, monday ...string) map[string]string {
	mon := weekday
	if len(monday) > 0 {
		mon = monday[0]
	}
	return map[string]string{
		"monday": mon, "tuesday": weekday, "wednesday": weekday, "thursday": weekday,
		"friday": friday, "saturday": saturday, "sunday": sunday,
	}
}

// Restaurants is the catalogue loaded by Seed.
var Restaurants = []model.Restaurant{
	{
		Name:           "TheHungryUnicorn",
		MicrositeName:  "TheHungryUnicorn",
		Description:    "A magical dining experience with contemporary European cuisine in an enchanting atmosphere.",
		CuisineType:    "European",
		Location:       "Downtown",
		Address:        "123 Magic Lane, Downtown District",
		Phone:          "+1 (555) 123-4567",
		Email:          "reservations@thehungryunicorn.com",
		Website:        "https://thehungryunicorn.com",
		PriceRange:     "$$$",
		Features:       []string{"Outdoor Seating", "Wine Bar", "Private Dining", "Valet Parking"},
		DietaryOptions: []string{"Vegetarian", "Vegan", "Gluten-Free"},
		AverageRating:  4,
		TotalReviews:   127,
		OpeningHours:   weekHours("17:00-22:00", "17:00-23:00", "12:00-23:00", "12:00-21:00"),
		MaxPartySize:   8,
	},
	{
		Name:           "Bella Vista Italian",
		MicrositeName:  "BellaVistaItalian",
		Description:    "Authentic Italian cuisine with handmade pasta and wood-fired pizzas in a cozy trattoria setting.",
		CuisineType:    "Italian",
		Location:       "Little Italy",
		Address:        "456 Pasta Street, Little Italy",
		Phone:          "+1 (555) 234-5678",
		Email:          "ciao@bellavista.com",
		Website:        "https://bellavistaitalian.com",
		PriceRange:     "$$",
		Features:       []string{"Wood-Fired Pizza", "Wine Cellar", "Family-Friendly", "Takeout"},
		DietaryOptions: []string{"Vegetarian", "Gluten-Free Options"},
		AverageRating:  5,
		TotalReviews:   89,
		OpeningHours:   weekHours("11:30-21:00", "11:30-22:00", "11:30-22:00", "12:00-20:00"),
		MaxPartySize:   10,
	},
	{
		Name:           "Sakura Sushi Bar",
		MicrositeName:  "SakuraSushiBar",
		Description:    "Fresh sushi and Japanese cuisine with a modern twist, featuring omakase and sake pairings.",
		CuisineType:    "Japanese",
		Location:       "Arts District",
		Address:        "789 Sushi Way, Arts District",
		Phone:          "+1 (555) 345-6789",
		Email:          "konnichiwa@sakurasushi.com",
		Website:        "https://sakurasushi.com",
		PriceRange:     "$$$$",
		Features:       []string{"Sushi Bar", "Sake Selection", "Omakase", "Modern Decor"},
		DietaryOptions: []string{"Gluten-Free", "Raw Options"},
		AverageRating:  5,
		TotalReviews:   156,
		OpeningHours:   weekHours("17:30-22:00", "17:30-23:00", "17:30-23:00", "17:30-21:00", "closed"),
		MaxPartySize:   6,
	},
	{
		Name:           "Green Garden Cafe",
		MicrositeName:  "GreenGardenCafe",
		Description:    "Farm-to-table restaurant focusing on organic, locally-sourced ingredients with extensive vegan options.",
		CuisineType:    "Healthy/Organic",
		Location:       "Riverside",
		Address:        "321 Garden Path, Riverside",
		Phone:          "+1 (555) 456-7890",
		Email:          "hello@greengarden.com",
		Website:        "https://greengardencafe.com",
		PriceRange:     "$$",
		Features:       []string{"Organic", "Garden Seating", "Farm-to-Table", "Brunch"},
		DietaryOptions: []string{"Vegan", "Vegetarian", "Gluten-Free", "Organic", "Raw"},
		AverageRating:  4,
		TotalReviews:   73,
		OpeningHours:   weekHours("08:00-15:00", "08:00-21:00", "08:00-21:00", "08:00-15:00"),
		MaxPartySize:   8,
	},
	{
		Name:           "Spice Route Indian",
		MicrositeName:  "SpiceRouteIndian",
		Description:    "Traditional Indian cuisine with regional specialties, tandoor cooking, and an extensive spice selection.",
		CuisineType:    "Indian",
		Location:       "Spice Quarter",
		Address:        "654 Curry Lane, Spice Quarter",
		Phone:          "+1 (555) 567-8901",
		Email:          "namaste@spiceroute.com",
		Website:        "https://spicerouteindian.com",
		PriceRange:     "$$",
		Features:       []string{"Tandoor Oven", "Buffet Lunch", "Live Music", "Catering"},
		DietaryOptions: []string{"Vegetarian", "Vegan", "Halal", "Gluten-Free Options"},
		AverageRating:  4,
		TotalReviews:   92,
		OpeningHours:   weekHours("11:30-14:30,17:00-22:00", "11:30-14:30,17:00-22:30", "11:30-22:30", "11:30-21:00"),
		MaxPartySize:   12,
	},
}

const slotBatchSize = 500

// Seed loads the cancellation reasons, the restaurant catalogue and
// opts.Days of availability slots. Rows that already exist are left
// alone, so Seed may be run on every start.
func Seed(ctx context.Context, db *DB, opts SeedOptions) error {
	opts = opts.withDefaults()
	log := zerolog.Ctx(ctx)

	return db.WithTx(ctx, func(ctx context.Context) error {
		q := db.Ext(ctx)
		for _, r := range CancellationReasons {
			var n int
			if err := sqlx.GetContext(ctx, q, &n, q.Rebind("SELECT COUNT(*) FROM cancellation_reasons WHERE id = ?"), r.ID); err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			if _, err := q.ExecContext(ctx, q.Rebind(
				"INSERT INTO cancellation_reasons (id, reason, description) VALUES (?,?,?)"),
				r.ID, r.Reason, r.Description); err != nil {
				return fmt.Errorf("seed cancellation reason %d: %w", r.ID, err)
			}
		}

		for _, r := range Restaurants {
			id, created, err := ensureRestaurant(ctx, q, r)
			if err != nil {
				return err
			}
			if created {
				log.Info().Str("restaurant", r.Name).Uint64("restaurant_id", id).Msg("seeded restaurant")
			}
			n, err := seedSlots(ctx, q, id, r, opts)
			if err != nil {
				return err
			}
			log.Debug().Str("restaurant", r.Name).Int("slots", n).Msg("seeded availability")
		}
		return nil
	})
}

func ensureRestaurant(ctx context.Context, q sqlx.ExtContext, r model.Restaurant) (uint64, bool, error) {
	var id uint64
	err := q.QueryRowxContext(ctx, q.Rebind("SELECT id FROM restaurants WHERE name = ?"), r.Name).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	id, err = InsertID(ctx, q, `INSERT INTO restaurants
		(name, microsite_name, description, cuisine_type, location, address, phone, email, website,
		 price_range, average_rating, total_reviews, max_party_size, accepts_reservations, is_active, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.Name, r.MicrositeName, r.Description, r.CuisineType, r.Location, r.Address, r.Phone, r.Email,
		r.Website, r.PriceRange, r.AverageRating, r.TotalReviews, r.MaxPartySize, true, true, time.Now().UTC())
	if err != nil {
		return 0, false, fmt.Errorf("seed restaurant %s: %w", r.Name, err)
	}
	for _, f := range r.Features {
		if _, err := q.ExecContext(ctx, q.Rebind(
			"INSERT INTO restaurant_features (restaurant_id, feature) VALUES (?,?)"), id, f); err != nil {
			return 0, false, err
		}
	}
	for _, o := range r.DietaryOptions {
		if _, err := q.ExecContext(ctx, q.Rebind(
			"INSERT INTO restaurant_dietary_options (restaurant_id, dietary_option) VALUES (?,?)"), id, o); err != nil {
			return 0, false, err
		}
	}
	for day, hours := range r.OpeningHours {
		if _, err := q.ExecContext(ctx, q.Rebind(
			"INSERT INTO restaurant_opening_hours (restaurant_id, day_of_week, opening_hours) VALUES (?,?,?)"),
			id, day, hours); err != nil {
			return 0, false, err
		}
	}
	return id, true, nil
}

func seedSlots(ctx context.Context, q sqlx.ExtContext, restaurantID uint64, r model.Restaurant, opts SeedOptions) (int, error) {
	times := SlotTimes(r.CuisineType)
	rows := make([]any, 0, slotBatchSize*5)
	total := 0
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		n := len(rows) / 5
		query := insertIgnore(q.DriverName(), "availability_slots",
			"(restaurant_id, slot_date, slot_time, max_party_size, is_open)",
			strings.TrimSuffix(strings.Repeat("(?,?,?,?,?),", n), ","))
		if _, err := q.ExecContext(ctx, q.Rebind(query), rows...); err != nil {
			return fmt.Errorf("seed slots for %s: %w", r.Name, err)
		}
		total += n
		rows = rows[:0]
		return nil
	}

	for i := 0; i < opts.Days; i++ {
		day := opts.Start.AddDays(i)
		for _, at := range times {
			open := opts.Rand.Float64() < opts.OpenRatio
			rows = append(rows, restaurantID, day, at, r.MaxPartySize, open)
			if len(rows) == slotBatchSize*5 {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
	return total, flush()
}

// insertIgnore builds a multi-row INSERT that skips rows hitting a unique key.
func insertIgnore(driver, table, columns, values string) string {
	if driver == DriverPostgres {
		return fmt.Sprintf("INSERT INTO %s %s VALUES %s ON CONFLICT DO NOTHING", table, columns, values)
	}
	return fmt.Sprintf("INSERT IGNORE INTO %s %s VALUES %s", table, columns, values)
}
