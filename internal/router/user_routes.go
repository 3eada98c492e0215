package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/handler"
)

// registerUser mounts the account endpoints. All of them require a
// bearer token.
func registerUser(e *echo.Echo, u *handler.UserHandler, h *handler.BookingHistoryHandler, bearer echo.MiddlewareFunc) {
	g := e.Group("/api/user", bearer)
	// Profile and preferences.
	g.GET("/profile", u.Profile)
	g.PATCH("/profile", u.UpdateProfile)  // allow-listed fields; unknown keys are a 400
	g.DELETE("/account", u.DeleteAccount) // deactivates and revokes tokens; bookings stay

	// Booking views, newest visit first unless sort says otherwise.
	g.GET("/bookings", u.ListBookings)
	g.GET("/bookings/history", h.History) // filtered and paginated
	g.GET("/bookings/stats", h.Stats)
	g.GET("/bookings/upcoming", h.Upcoming) // days_ahead, default 30
	g.GET("/bookings/filters/options", h.FilterOptions)
	g.PATCH("/bookings/:ref/status", h.ChangeStatus) // follows the status transition table
}
