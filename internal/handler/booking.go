package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

// BookingHandler serves the consumer booking API. Requests are form
// encoded and addressed by restaurant name and booking reference.
type BookingHandler struct {
	Bookings     *service.BookingService
	Availability *service.AvailabilityService
}

func NewBookingHandler(b *service.BookingService, a *service.AvailabilityService) *BookingHandler {
	return &BookingHandler{Bookings: b, Availability: a}
}

type bookingCreatedResp struct {
	Reference  string              `json:"booking_reference"`
	ID         uint64              `json:"booking_id"`
	Restaurant string              `json:"restaurant"`
	Status     model.BookingStatus `json:"status"`
	Booking    model.BookingDetail `json:"booking"`
}

// AvailabilitySearch lists the slots of the restaurant on VisitDate that
// can seat PartySize.
func (h *BookingHandler) AvailabilitySearch(c echo.Context) error {
	var (
		date      model.Date
		partySize int
		channel   string
	)
	b := echo.FormFieldBinder(c)
	bindRequired(b, "VisitDate", model.ParseDate, &date)
	bindRequired(b, "PartySize", parseInt, &partySize)
	b.String("ChannelCode", &channel)
	if err := b.BindError(); err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Availability.Search(ctx, c.Param("name"), date, partySize, channel)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Create books a table. Guest details default to the account's own.
func (h *BookingHandler) Create(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	in := service.CreateBookingInput{ChannelCode: "ONLINE"}
	b := echo.FormFieldBinder(c)
	bindRequired(b, "VisitDate", model.ParseDate, &in.VisitDate)
	bindRequired(b, "VisitTime", model.ParseTimeOfDay, &in.VisitTime)
	bindRequired(b, "PartySize", parseInt, &in.PartySize)
	b.String("ChannelCode", &in.ChannelCode).
		String("SpecialRequests", &in.SpecialRequests).
		String("RoomNumber", &in.RoomNumber)
	bindValue(b, "IsLeaveTimeConfirmed", parseBool, &in.IsLeaveTimeConfirmed)
	b.String("Customer[Title]", &in.Customer.Title).
		String("Customer[FirstName]", &in.Customer.FirstName).
		String("Customer[Surname]", &in.Customer.Surname).
		String("Customer[MobileCountryCode]", &in.Customer.MobileCountryCode).
		String("Customer[Mobile]", &in.Customer.Mobile).
		String("Customer[Email]", &in.Customer.Email)
	bindValue(b, "Customer[ReceiveEmailMarketing]", parseBool, &in.Customer.ReceiveEmailMarketing)
	bindValue(b, "Customer[ReceiveSmsMarketing]", parseBool, &in.Customer.ReceiveSMSMarketing)
	if err := b.BindError(); err != nil {
		return bindErr(err)
	}
	if in.ChannelCode == "" {
		in.ChannelCode = "ONLINE"
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.Bookings.Create(ctx, u, c.Param("name"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bookingCreatedResp{
		Reference:  d.Reference,
		ID:         d.ID,
		Restaurant: d.RestaurantName,
		Status:     d.Status,
		Booking:    d,
	})
}

func (h *BookingHandler) Get(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.Bookings.Get(ctx, u, c.Param("name"), c.Param("ref"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Update changes only the fields present in the form.
func (h *BookingHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var upd model.BookingUpdate
	b := echo.FormFieldBinder(c)
	bindPointer(b, "VisitDate", model.ParseDate, &upd.VisitDate)
	bindPointer(b, "VisitTime", model.ParseTimeOfDay, &upd.VisitTime)
	bindPointer(b, "PartySize", parseInt, &upd.PartySize)
	bindPointer(b, "SpecialRequests", parseString, &upd.SpecialRequests)
	bindPointer(b, "IsLeaveTimeConfirmed", parseBool, &upd.IsLeaveTimeConfirmed)
	if err := b.BindError(); err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.Bookings.Update(ctx, u, c.Param("name"), c.Param("ref"), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Booking updated successfully",
		"booking": d,
	})
}

func (h *BookingHandler) Cancel(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var reasonID int64
	b := echo.FormFieldBinder(c)
	bindRequired(b, "cancellationReasonId", parseInt64, &reasonID)
	if err := b.BindError(); err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.Bookings.Cancel(ctx, u, c.Param("name"), c.Param("ref"), reasonID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":                fmt.Sprintf("Booking %s has been successfully cancelled", d.Reference),
		"booking_reference":      d.Reference,
		"status":                 d.Status,
		"cancellation_reason_id": d.CancellationReasonID,
	})
}

// CancellationReasons serves the lookup table used by Cancel.
func (h *BookingHandler) CancellationReasons(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	reasons, err := h.Bookings.CancellationReasons(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reasons)
}
