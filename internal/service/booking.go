package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/metrics"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/queue"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

// CreateBookingInput is a booking request for one restaurant.
type CreateBookingInput struct {
	VisitDate            model.Date
	VisitTime            model.TimeOfDay
	PartySize            int
	ChannelCode          string
	SpecialRequests      string
	IsLeaveTimeConfirmed bool
	RoomNumber           string
	Customer             model.CustomerDetails
}

// StatusChangeResult describes an applied status transition.
type StatusChangeResult struct {
	Reference string              `json:"booking_reference"`
	OldStatus model.BookingStatus `json:"old_status"`
	NewStatus model.BookingStatus `json:"new_status"`
	UpdatedAt time.Time           `json:"updated_at"`
	Notes     *string             `json:"notes"`
	Message   string              `json:"message"`
}

// BookingDeps are the collaborators of a BookingService. Events and Now
// are optional.
type BookingDeps struct {
	Tx          TxRunner
	Restaurants RestaurantStore
	Slots       SlotStore
	Bookings    BookingStore
	Reasons     CancellationReasonStore
	Reviews     ReviewStore
	Customers   *CustomerService
	References  *ReferenceAllocator
	Events      queue.Publisher
	Ceiling     int
	Now         Clock
}

// BookingService implements the booking lifecycle. Every lookup is scoped
// to the requesting user; bookings of other users are reported as not
// found.
type BookingService struct {
	tx          TxRunner
	restaurants RestaurantStore
	slots       SlotStore
	bookings    BookingStore
	reasons     CancellationReasonStore
	reviews     ReviewStore
	customers   *CustomerService
	refs        *ReferenceAllocator
	events      queue.Publisher
	ceiling     int
	now         Clock
}

func NewBookingService(d BookingDeps) *BookingService {
	s := &BookingService{
		tx:          d.Tx,
		restaurants: d.Restaurants,
		slots:       d.Slots,
		bookings:    d.Bookings,
		reasons:     d.Reasons,
		reviews:     d.Reviews,
		customers:   d.Customers,
		refs:        d.References,
		events:      d.Events,
		ceiling:     d.Ceiling,
		now:         d.Now,
	}
	if s.refs == nil {
		s.refs = NewReferenceAllocator(defaultReferenceAttempts)
	}
	if s.events == nil {
		s.events = queue.Discard{}
	}
	if s.ceiling < 1 {
		s.ceiling = DefaultSlotCeiling
	}
	if s.now == nil {
		s.now = utcNow
	}
	return s
}

// Create books a table at the named restaurant for user. The slot must
// exist, be open, seat the party and hold fewer than the ceiling of
// confirmed bookings; this is checked under a lock on the slot row in the
// same transaction as the insert.
func (s *BookingService) Create(ctx context.Context, user model.User, restaurantName string, in CreateBookingInput) (model.BookingDetail, error) {
	if err := validatePartySize(in.PartySize); err != nil {
		return model.BookingDetail{}, err
	}
	if in.VisitDate.IsZero() {
		return model.BookingDetail{}, apperror.Validation("visit date is required", map[string]any{"visit_date": "required"})
	}
	r, err := s.restaurants.GetByName(ctx, restaurantName)
	if err != nil {
		return model.BookingDetail{}, restaurantErr(err)
	}
	// The customer profile is committed on its own so that losing the
	// insert race leaves a readable winner.
	customer, err := s.customers.GetOrCreate(ctx, user, in.Customer)
	if err != nil {
		return model.BookingDetail{}, err
	}

	b := model.Booking{
		RestaurantID:         r.ID,
		CustomerID:           customer.ID,
		UserID:               user.ID,
		VisitDate:            in.VisitDate,
		VisitTime:            in.VisitTime,
		PartySize:            in.PartySize,
		ChannelCode:          in.ChannelCode,
		SpecialRequests:      in.SpecialRequests,
		IsLeaveTimeConfirmed: in.IsLeaveTimeConfirmed,
		RoomNumber:           in.RoomNumber,
		Status:               model.StatusConfirmed,
	}
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.checkCapacity(ctx, b.RestaurantID, b.VisitDate, b.VisitTime, b.PartySize, 0); err != nil {
			return err
		}
		ref, err := s.refs.Allocate(ctx, s.bookings.ReferenceExists)
		if err != nil {
			if errors.Is(err, ErrReferenceExhausted) {
				return apperror.ReferenceExhausted(s.refs.MaxAttempts)
			}
			return apperror.Internal(err)
		}
		b.Reference = ref
		if err := s.bookings.Create(ctx, &b); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// Another transaction took the reference after the check.
				metrics.ReferenceCollisions.Inc()
				return apperror.ReferenceExhausted(s.refs.MaxAttempts)
			}
			return apperror.Internal(err)
		}
		return s.record(ctx, &b, "", model.StatusConfirmed, user.ID, "booking created")
	})
	if err != nil {
		return model.BookingDetail{}, err
	}

	detail := model.BookingDetail{
		Booking:        b,
		RestaurantName: r.Name,
		Customer: model.CustomerSummary{
			FirstName: customer.FirstName,
			Surname:   customer.Surname,
			Email:     customer.Email,
			Mobile:    customer.Mobile,
		},
	}
	metrics.BookingsCreated.WithLabelValues(r.Name).Inc()
	zerolog.Ctx(ctx).Info().Str("booking_reference", b.Reference).Uint64("user_id", user.ID).
		Str("restaurant", r.Name).Msg("booking created")
	s.publish(ctx, queue.EventBookingCreated, detail, "")
	return detail, nil
}

// Get returns the booking with ref at the named restaurant if user owns it.
func (s *BookingService) Get(ctx context.Context, user model.User, restaurantName, ref string) (model.BookingDetail, error) {
	b, err := s.bookings.GetForUser(ctx, restaurantName, ref, user.ID)
	if err != nil {
		return model.BookingDetail{}, bookingErr(err)
	}
	return b, nil
}

// Update applies the fields set in upd. A booking that moves to another
// slot or grows its party is re-checked against that slot's capacity,
// not counting itself.
func (s *BookingService) Update(ctx context.Context, user model.User, restaurantName, ref string, upd model.BookingUpdate) (model.BookingDetail, error) {
	var (
		detail  model.BookingDetail
		changed bool
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUser(ctx, restaurantName, ref, user.ID)
		if err != nil {
			return bookingErr(err)
		}
		if b.Status == model.StatusCancelled {
			return apperror.Conflict("cannot update a cancelled booking")
		}
		detail = b
		if upd.Empty() {
			return nil
		}

		next := b.Booking
		if upd.VisitDate != nil {
			next.VisitDate = *upd.VisitDate
		}
		if upd.VisitTime != nil {
			next.VisitTime = *upd.VisitTime
		}
		if upd.PartySize != nil {
			if err := validatePartySize(*upd.PartySize); err != nil {
				return err
			}
			next.PartySize = *upd.PartySize
		}
		if upd.SpecialRequests != nil {
			next.SpecialRequests = *upd.SpecialRequests
		}
		if upd.IsLeaveTimeConfirmed != nil {
			next.IsLeaveTimeConfirmed = *upd.IsLeaveTimeConfirmed
		}

		moved := !next.VisitDate.Equal(b.VisitDate) || next.VisitTime != b.VisitTime || next.PartySize != b.PartySize
		if moved {
			if err := s.checkCapacity(ctx, next.RestaurantID, next.VisitDate, next.VisitTime, next.PartySize, b.ID); err != nil {
				return err
			}
		}
		if err := s.bookings.Update(ctx, &next); err != nil {
			return bookingErr(err)
		}
		detail.Booking = next
		changed = true
		return nil
	})
	if err != nil {
		return model.BookingDetail{}, err
	}
	if changed {
		s.publish(ctx, queue.EventBookingUpdated, detail, "")
	}
	return detail, nil
}

// Cancel cancels the booking with the given reason. Cancelling twice is a
// conflict.
func (s *BookingService) Cancel(ctx context.Context, user model.User, restaurantName, ref string, reasonID int64) (model.BookingDetail, error) {
	var (
		detail model.BookingDetail
		old    model.BookingStatus
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUser(ctx, restaurantName, ref, user.ID)
		if err != nil {
			return bookingErr(err)
		}
		if b.Status == model.StatusCancelled {
			return apperror.Conflict("booking is already cancelled").WithCode(apperror.CodeAlreadyCancelled)
		}
		reason, err := s.reasons.Get(ctx, reasonID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.InvalidInput("invalid cancellation reason id")
		}
		if err != nil {
			return apperror.Internal(err)
		}

		old = b.Status
		b.Status = model.StatusCancelled
		b.CancellationReasonID = &reason.ID
		if err := s.bookings.Update(ctx, &b.Booking); err != nil {
			return bookingErr(err)
		}
		detail = b
		return s.record(ctx, &b.Booking, old, model.StatusCancelled, user.ID, reason.Reason)
	})
	if err != nil {
		return model.BookingDetail{}, err
	}
	metrics.BookingsCancelled.Inc()
	metrics.RecordStatusChange(string(old), string(model.StatusCancelled))
	s.publish(ctx, queue.EventBookingCancelled, detail, old)
	return detail, nil
}

// ChangeStatus moves a booking along the status graph. Moving a pending
// booking to confirmed takes a place in its slot and is capacity-checked.
func (s *BookingService) ChangeStatus(ctx context.Context, user model.User, ref, newStatus string, notes *string) (StatusChangeResult, error) {
	next, ok := model.ParseBookingStatus(newStatus)
	if !ok {
		names := make([]string, len(model.AllStatuses))
		for i, st := range model.AllStatuses {
			names[i] = string(st)
		}
		return StatusChangeResult{}, apperror.InvalidInput("invalid status, must be one of: " + strings.Join(names, ", "))
	}

	var (
		detail model.BookingDetail
		old    model.BookingStatus
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByReferenceForUser(ctx, ref, user.ID)
		if err != nil {
			return bookingErr(err)
		}
		old = b.Status
		if !old.CanTransitionTo(next) {
			return apperror.Conflict(fmt.Sprintf("cannot change status from %s to %s", old, next)).
				WithCode(apperror.CodeInvalidTransition)
		}
		if next == model.StatusConfirmed {
			if err := s.checkCapacity(ctx, b.RestaurantID, b.VisitDate, b.VisitTime, b.PartySize, b.ID); err != nil {
				return err
			}
		}
		b.Status = next
		if err := s.bookings.Update(ctx, &b.Booking); err != nil {
			return bookingErr(err)
		}
		detail = b
		var note string
		if notes != nil {
			note = *notes
		}
		return s.record(ctx, &b.Booking, old, next, user.ID, note)
	})
	if err != nil {
		return StatusChangeResult{}, err
	}

	metrics.RecordStatusChange(string(old), string(next))
	if next == model.StatusCancelled {
		metrics.BookingsCancelled.Inc()
	}
	s.publish(ctx, queue.EventBookingStatusChanged, detail, old)
	return StatusChangeResult{
		Reference: ref,
		OldStatus: old,
		NewStatus: next,
		UpdatedAt: detail.UpdatedAt,
		Notes:     notes,
		Message:   fmt.Sprintf("Booking status updated from %s to %s", old, next),
	}, nil
}

// CancellationReasons lists the reasons a guest may cancel with.
func (s *BookingService) CancellationReasons(ctx context.Context) ([]model.CancellationReason, error) {
	reasons, err := s.reasons.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return reasons, nil
}

// ListForUser returns every booking of user, newest visit first.
func (s *BookingService) ListForUser(ctx context.Context, user model.User) ([]model.BookingDetail, error) {
	list, err := s.bookings.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if list == nil {
		list = []model.BookingDetail{}
	}
	return list, nil
}

// checkCapacity must run inside a transaction: it locks the slot row so
// that concurrent bookings for the same slot serialise on it.
func (s *BookingService) checkCapacity(ctx context.Context, restaurantID uint64, date model.Date, at model.TimeOfDay, partySize int, excludeID uint64) error {
	slot, err := s.slots.LockSlot(ctx, restaurantID, date, at)
	if errors.Is(err, repository.ErrNotFound) {
		return slotUnavailable("no slot at the requested time")
	}
	if err != nil {
		return apperror.Internal(err)
	}
	if !slot.IsOpen {
		return slotUnavailable("slot is closed")
	}
	if slot.MaxPartySize < partySize {
		return slotUnavailable(fmt.Sprintf("slot seats at most %d", slot.MaxPartySize))
	}
	n, err := s.bookings.CountConfirmedAt(ctx, restaurantID, date, at, excludeID)
	if err != nil {
		return apperror.Internal(err)
	}
	if n >= s.ceiling {
		return slotUnavailable("slot is fully booked")
	}
	return nil
}

func (s *BookingService) record(ctx context.Context, b *model.Booking, old, next model.BookingStatus, by uint64, notes string) error {
	err := s.bookings.RecordStatusChange(ctx, &model.StatusChange{
		BookingID: b.ID,
		OldStatus: old,
		NewStatus: next,
		Notes:     notes,
		ChangedBy: by,
		ChangedAt: s.now(),
	})
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *BookingService) publish(ctx context.Context, typ string, b model.BookingDetail, old model.BookingStatus) {
	ev := queue.NewBookingEvent(typ, b, s.now())
	ev.OldStatus = string(old)
	if err := s.events.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", typ).Msg("booking event not published")
	}
}

func slotUnavailable(reason string) error {
	return apperror.Conflict("slot unavailable").
		WithCode(apperror.CodeSlotUnavailable).
		WithDetails(map[string]any{"reason": reason})
}

func bookingErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("booking")
	}
	var ae *apperror.AppError
	if errors.As(err, &ae) {
		return ae
	}
	return apperror.Internal(err)
}
