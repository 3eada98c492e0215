package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

// RestaurantHandler serves the public restaurant directory.
type RestaurantHandler struct {
	Restaurants  *service.RestaurantService
	Availability *service.AvailabilityService
}

func NewRestaurantHandler(r *service.RestaurantService, a *service.AvailabilityService) *RestaurantHandler {
	return &RestaurantHandler{Restaurants: r, Availability: a}
}

// List filters restaurants by the query parameters cuisine_type, location,
// price_range, features, dietary_options, min_rating and search. features
// and dietary_options are comma separated.
func (h *RestaurantHandler) List(c echo.Context) error {
	var f model.RestaurantFilter
	err := echo.QueryParamsBinder(c).
		String("cuisine_type", &f.Cuisine).
		String("location", &f.Location).
		String("price_range", &f.PriceRange).
		BindWithDelimiter("features", &f.Features, ",").
		BindWithDelimiter("dietary_options", &f.DietaryOptions, ",").
		Float64("min_rating", &f.MinRating).
		String("search", &f.Search).
		Int("limit", &f.Limit).
		Int("offset", &f.Offset).
		BindError()
	if err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.Restaurants.List(ctx, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *RestaurantHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.Restaurants.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *RestaurantHandler) Cuisines(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Restaurants.Cuisines(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"cuisines": list})
}

func (h *RestaurantHandler) Locations(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Restaurants.Locations(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"locations": list})
}

func (h *RestaurantHandler) PriceRanges(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"price_ranges": h.Restaurants.PriceRanges()})
}

// RestaurantAvailability resolves the slots of restaurant :id for visit_date and
// party_size.
func (h *RestaurantHandler) RestaurantAvailability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var (
		date      model.Date
		partySize int
	)
	b := echo.QueryParamsBinder(c)
	bindRequired(b, "visit_date", model.ParseDate, &date)
	bindRequired(b, "party_size", parseInt, &partySize)
	if err := b.BindError(); err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Availability.ForRestaurant(ctx, id, date, partySize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
