package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/handler"
)

// registerConsumer mounts the form-encoded booking API. Restaurants are
// addressed by name; bookings by reference.
func registerConsumer(e *echo.Echo, h *handler.BookingHandler, bearer echo.MiddlewareFunc) {
	// The reason catalogue is public so clients can render the cancel form.
	e.GET("/api/ConsumerApi/v1/CancellationReasons", h.CancellationReasons)

	g := e.Group("/api/ConsumerApi/v1/Restaurant/:name", bearer)
	g.POST("/AvailabilitySearch", h.AvailabilitySearch) // slots for VisitDate and PartySize
	g.POST("/BookingWithStripeToken", h.Create)         // no payment is taken
	g.GET("/Booking/:ref", h.Get)
	g.PATCH("/Booking/:ref", h.Update)       // only the fields present in the form change
	g.POST("/Booking/:ref/Cancel", h.Cancel) // frees the slot and records the reason
}

// registerRestaurants mounts the public directory. Listing, detail and
// facet responses go through the response cache; availability does not.
func registerRestaurants(e *echo.Echo, h *handler.RestaurantHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/api/restaurants")
	g.GET("", h.List, cache)
	g.GET("/search/cuisines", h.Cuisines, cache)
	g.GET("/search/locations", h.Locations, cache)
	g.GET("/search/price-ranges", h.PriceRanges, cache)
	g.GET("/:id", h.Get, cache)                          // detail plus recent reviews
	g.GET("/:id/availability", h.RestaurantAvailability) // open slots only
}

// registerReviews mounts the review endpoints. Writing and the per-user
// views need a bearer token; restaurant listings and summaries are public
// and cached.
func registerReviews(e *echo.Echo, h *handler.ReviewHandler, bearer, cache echo.MiddlewareFunc) {
	g := e.Group("/api/reviews")
	g.POST("", h.Create, bearer)
	g.GET("/restaurant/:name", h.ListForRestaurant, cache)
	g.GET("/restaurant/:name/summary", h.Summary, cache)
	g.GET("/user", h.ListForUser, bearer)
	g.GET("/booking/:ref", h.ForBooking, bearer)
}
