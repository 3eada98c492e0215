package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Pinger is satisfied by *database.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and describes the API. DB may be nil,
// in which case the health check does not touch storage.
type HealthHandler struct {
	DB      Pinger
	Version string
}

func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{DB: db, Version: version}
}

// Health answers 200 while the service and its database respond.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.DB != nil {
		ctx, cancel := requestContext(c)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			zerolog.Ctx(c.Request().Context()).Warn().Err(err).Msg("health check: database unreachable")
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status":  "unhealthy",
				"message": "database unreachable",
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"message": "Restaurant Booking API is running",
	})
}

// Info lists the API's endpoint groups.
func (h *HealthHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Restaurant Booking Mock API",
		"version":     h.Version,
		"description": "Mock restaurant booking system for AI agent testing",
		"endpoints": echo.Map{
			"auth":         "/api/auth/register, /api/auth/login, /api/auth/refresh, /api/auth/logout, /api/auth/me",
			"availability": "/api/ConsumerApi/v1/Restaurant/{restaurant_name}/AvailabilitySearch",
			"booking":      "/api/ConsumerApi/v1/Restaurant/{restaurant_name}/BookingWithStripeToken",
			"manage":       "/api/ConsumerApi/v1/Restaurant/{restaurant_name}/Booking/{booking_reference}",
			"cancel":       "/api/ConsumerApi/v1/Restaurant/{restaurant_name}/Booking/{booking_reference}/Cancel",
			"restaurants":  "/api/restaurants",
			"reviews":      "/api/reviews",
			"user":         "/api/user/profile, /api/user/bookings",
			"history":      "/api/user/bookings/history, /api/user/bookings/stats, /api/user/bookings/upcoming",
			"metrics":      "/metrics",
		},
	})
}
