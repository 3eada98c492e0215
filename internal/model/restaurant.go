package model

import "time"

// Restaurant is a venue guests can book. Features, dietary options and
// opening hours live in child tables and are attached by the repository
// after the main row is loaded.
type Restaurant struct {
	ID                  uint64            `db:"id" json:"id"`
	Name                string            `db:"name" json:"name"`
	MicrositeName       string            `db:"microsite_name" json:"microsite_name"`
	Description         string            `db:"description" json:"description"`
	CuisineType         string            `db:"cuisine_type" json:"cuisine_type"`
	Location            string            `db:"location" json:"location"`
	Address             string            `db:"address" json:"address"`
	Phone               string            `db:"phone" json:"phone"`
	Email               string            `db:"email" json:"email"`
	Website             string            `db:"website" json:"website"`
	PriceRange          string            `db:"price_range" json:"price_range"`
	AverageRating       float64           `db:"average_rating" json:"average_rating"`
	TotalReviews        int               `db:"total_reviews" json:"total_reviews"`
	MaxPartySize        int               `db:"max_party_size" json:"max_party_size"`
	AcceptsReservations bool              `db:"accepts_reservations" json:"accepts_reservations"`
	IsActive            bool              `db:"is_active" json:"is_active"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	Features            []string          `db:"-" json:"features"`
	DietaryOptions      []string          `db:"-" json:"dietary_options"`
	OpeningHours        map[string]string `db:"-" json:"opening_hours"`
}

// RestaurantFilter narrows a restaurant listing. Empty strings and zero
// values disable the corresponding filter. Features and DietaryOptions
// must all be present on a restaurant for it to match.
type RestaurantFilter struct {
	Cuisine        string
	Location       string
	PriceRange     string
	Features       []string
	DietaryOptions []string
	MinRating      float64
	Search         string
	Limit          int
	Offset         int
}

// PriceRanges is the fixed vocabulary used by price_range.
var PriceRanges = []PriceRange{
	{Value: "$", Label: "Budget-friendly"},
	{Value: "$$", Label: "Moderate"},
	{Value: "$$$", Label: "Upscale"},
	{Value: "$$$$", Label: "Fine dining"},
}

type PriceRange struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AvailabilitySlot is one bookable time at a restaurant on a date.
//
// Fields:
//  RestaurantID – owning restaurant.
//  Date         – calendar day of the slot.
//  Time         – start time of the slot.
//  MaxPartySize – largest party the slot can seat.
//  IsOpen       – whether the restaurant is taking bookings for it.
type AvailabilitySlot struct {
	ID           uint64    `db:"id" json:"id"`
	RestaurantID uint64    `db:"restaurant_id" json:"restaurant_id"`
	Date         Date      `db:"slot_date" json:"date"`
	Time         TimeOfDay `db:"slot_time" json:"time"`
	MaxPartySize int       `db:"max_party_size" json:"max_party_size"`
	IsOpen       bool      `db:"is_open" json:"is_open"`
}

// SlotAvailability is the resolved view of a slot for a booking request.
type SlotAvailability struct {
	Time            TimeOfDay `json:"time"`
	Available       bool      `json:"available"`
	MaxPartySize    int       `json:"max_party_size"`
	CurrentBookings int       `json:"current_bookings"`
}

// CancellationReason is an entry in the fixed list of reasons a guest
// may select when cancelling.
type CancellationReason struct {
	ID          int64  `db:"id" json:"id"`
	Reason      string `db:"reason" json:"reason"`
	Description string `db:"description" json:"description"`
}
