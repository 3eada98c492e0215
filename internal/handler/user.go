package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

// UserHandler serves the signed-in user's account.
type UserHandler struct {
	Profiles *service.ProfileService
	Bookings *service.BookingService
}

func NewUserHandler(p *service.ProfileService, b *service.BookingService) *UserHandler {
	return &UserHandler{Profiles: p, Bookings: b}
}

// profilePatch lists every field a client may change. Anything else in
// the body is rejected.
type profilePatch struct {
	FirstName          *string           `json:"first_name" validate:"omitempty,max=100"`
	LastName           *string           `json:"last_name" validate:"omitempty,max=100"`
	Phone              *string           `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth        *model.Date       `json:"date_of_birth"`
	AccessibilityNeeds *string           `json:"accessibility_needs" validate:"omitempty,max=1000"`
	Preferences        map[string]string `json:"preferences"`
}

func (h *UserHandler) Profile(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Profiles.Get(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req profilePatch
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.InvalidInput("request body is empty")
		}
		return apperror.InvalidInput(err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Profiles.Update(ctx, u.ID, model.ProfileUpdate{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		DateOfBirth:        req.DateOfBirth,
		AccessibilityNeeds: req.AccessibilityNeeds,
	}, req.Preferences)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ListBookings lists every booking of the user, newest visit first.
func (h *UserHandler) ListBookings(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Bookings.ListForUser(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list, "total": len(list)})
}

// DeleteAccount deactivates the account. Its bookings are kept.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Profiles.Deactivate(ctx, u.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message("Account deleted successfully"))
}
