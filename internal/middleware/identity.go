package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

const userKey = "user"

// CurrentUser returns the user stored by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

// SetUser stores u as the authenticated user. Tests use it to skip JWTAuth.
func SetUser(c echo.Context, u model.User) { c.Set(userKey, u) }
