package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

const defaultUpcomingDays = 30

// BookingHistoryHandler serves the signed-in user's booking dashboard.
type BookingHistoryHandler struct {
	Bookings *service.BookingService
}

func NewBookingHistoryHandler(b *service.BookingService) *BookingHistoryHandler {
	return &BookingHistoryHandler{Bookings: b}
}

func (h *BookingHistoryHandler) History(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var f service.BookingFilter
	b := echo.QueryParamsBinder(c).
		String("search", &f.Search).
		String("status", &f.Status).
		String("restaurant_name", &f.Restaurant).
		String("sort_by", &f.SortBy).
		Int("limit", &f.Limit).
		Int("offset", &f.Offset)
	bindValue(b, "date_from", model.ParseDate, &f.DateFrom)
	bindValue(b, "date_to", model.ParseDate, &f.DateTo)
	if err := b.BindError(); err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.Bookings.History(ctx, u, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *BookingHistoryHandler) Stats(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := h.Bookings.Stats(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *BookingHistoryHandler) Upcoming(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	days := defaultUpcomingDays
	if err := echo.QueryParamsBinder(c).Int("days_ahead", &days).BindError(); err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Bookings.Upcoming(ctx, u, days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *BookingHistoryHandler) FilterOptions(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	opts, err := h.Bookings.FilterOptions(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, opts)
}

// ChangeStatus applies a status transition sent as form fields new_status
// and notes.
func (h *BookingHistoryHandler) ChangeStatus(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var (
		status string
		notes  *string
	)
	b := echo.FormFieldBinder(c)
	bindRequired(b, "new_status", parseString, &status)
	bindPointer(b, "notes", parseString, &notes)
	if err := b.BindError(); err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Bookings.ChangeStatus(ctx, u, c.Param("ref"), status, notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
