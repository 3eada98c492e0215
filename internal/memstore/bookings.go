package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

type Customers struct{ s *Store }

func (c *Customers) GetByUserID(_ context.Context, userID uint64) (model.Customer, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, cust := range c.s.st.customers {
		if cust.UserID == userID {
			return cust, nil
		}
	}
	return model.Customer{}, repository.ErrNotFound
}

func (c *Customers) Create(_ context.Context, cust *model.Customer) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, existing := range c.s.st.customers {
		if existing.UserID == cust.UserID {
			return repository.ErrConflict
		}
	}
	cust.ID = c.s.id()
	cust.CreatedAt = time.Now().UTC()
	c.s.st.customers[cust.ID] = *cust
	return nil
}

type Bookings struct{ s *Store }

func (b *Bookings) ReferenceExists(_ context.Context, ref string) (bool, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, bk := range b.s.st.bookings {
		if bk.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (b *Bookings) Create(_ context.Context, bk *model.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, existing := range b.s.st.bookings {
		if existing.Reference == bk.Reference {
			return repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	bk.ID = b.s.id()
	bk.CreatedAt, bk.UpdatedAt = now, now
	b.s.st.bookings[bk.ID] = *bk
	return nil
}

func (b *Bookings) GetForUser(_ context.Context, restaurantName, ref string, userID uint64) (model.BookingDetail, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, bk := range b.s.st.bookings {
		if bk.Reference != ref || bk.UserID != userID {
			continue
		}
		r := b.s.st.restaurants[bk.RestaurantID]
		if r.Name == restaurantName || r.MicrositeName == restaurantName {
			return b.detail(bk), nil
		}
	}
	return model.BookingDetail{}, repository.ErrNotFound
}

func (b *Bookings) GetByReferenceForUser(_ context.Context, ref string, userID uint64) (model.BookingDetail, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, bk := range b.s.st.bookings {
		if bk.Reference == ref && bk.UserID == userID {
			return b.detail(bk), nil
		}
	}
	return model.BookingDetail{}, repository.ErrNotFound
}

func (b *Bookings) CountConfirmed(_ context.Context, restaurantID uint64, date model.Date) (map[model.TimeOfDay]int, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	counts := map[model.TimeOfDay]int{}
	for _, bk := range b.s.st.bookings {
		if bk.RestaurantID == restaurantID && bk.VisitDate.Equal(date) && bk.Status == model.StatusConfirmed {
			counts[bk.VisitTime]++
		}
	}
	return counts, nil
}

func (b *Bookings) CountConfirmedAt(_ context.Context, restaurantID uint64, date model.Date, at model.TimeOfDay, excludeID uint64) (int, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	n := 0
	for _, bk := range b.s.st.bookings {
		if bk.ID != excludeID && bk.RestaurantID == restaurantID && bk.VisitDate.Equal(date) &&
			bk.VisitTime == at && bk.Status == model.StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (b *Bookings) Update(_ context.Context, bk *model.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	existing, ok := b.s.st.bookings[bk.ID]
	if !ok || existing.UserID != bk.UserID {
		return repository.ErrNotFound
	}
	bk.UpdatedAt = time.Now().UTC()
	existing.VisitDate = bk.VisitDate
	existing.VisitTime = bk.VisitTime
	existing.PartySize = bk.PartySize
	existing.SpecialRequests = bk.SpecialRequests
	existing.IsLeaveTimeConfirmed = bk.IsLeaveTimeConfirmed
	existing.Status = bk.Status
	existing.CancellationReasonID = bk.CancellationReasonID
	existing.UpdatedAt = bk.UpdatedAt
	b.s.st.bookings[bk.ID] = existing
	return nil
}

func (b *Bookings) RecordStatusChange(_ context.Context, c *model.StatusChange) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	c.ID = b.s.id()
	if c.ChangedAt.IsZero() {
		c.ChangedAt = time.Now().UTC()
	}
	b.s.st.history = append(b.s.st.history, *c)
	return nil
}

// ListForUser returns the user's bookings, newest visit first.
func (b *Bookings) ListForUser(_ context.Context, userID uint64) ([]model.BookingDetail, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	out := []model.BookingDetail{}
	for _, bk := range b.s.st.bookings {
		if bk.UserID == userID {
			out = append(out, b.detail(bk))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if !x.VisitDate.Equal(y.VisitDate) {
			return x.VisitDate.After(y.VisitDate)
		}
		if x.VisitTime != y.VisitTime {
			return y.VisitTime.Before(x.VisitTime)
		}
		return x.ID > y.ID
	})
	return out, nil
}

// detail must be called with mu held.
func (b *Bookings) detail(bk model.Booking) model.BookingDetail {
	d := model.BookingDetail{Booking: bk, RestaurantName: b.s.st.restaurants[bk.RestaurantID].Name}
	if c, ok := b.s.st.customers[bk.CustomerID]; ok {
		d.Customer = model.CustomerSummary{FirstName: c.FirstName, Surname: c.Surname, Email: c.Email, Mobile: c.Mobile}
	}
	return d
}
