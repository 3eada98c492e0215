package service

import (
	"context"
	"errors"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

// CustomerService owns the one-per-user guest profile.
type CustomerService struct {
	customers CustomerStore
}

func NewCustomerService(customers CustomerStore) *CustomerService {
	return &CustomerService{customers: customers}
}

// GetOrCreate returns the user's customer profile, creating it from d on
// first use. Blank fields of d are filled from the account. When a
// concurrent request wins the insert race the winner's row is returned.
// Details submitted after the profile exists are ignored.
func (s *CustomerService) GetOrCreate(ctx context.Context, user model.User, d model.CustomerDetails) (model.Customer, error) {
	c, err := s.customers.GetByUserID(ctx, user.ID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Customer{}, apperror.Internal(err)
	}

	c = model.Customer{
		UserID:                user.ID,
		Title:                 firstNonEmpty(d.Title, user.FirstName),
		FirstName:             firstNonEmpty(d.FirstName, user.FirstName),
		Surname:               firstNonEmpty(d.Surname, user.LastName),
		MobileCountryCode:     d.MobileCountryCode,
		Mobile:                firstNonEmpty(d.Mobile, user.Phone),
		Email:                 firstNonEmpty(d.Email, user.Email),
		ReceiveEmailMarketing: d.ReceiveEmailMarketing,
		ReceiveSMSMarketing:   d.ReceiveSMSMarketing,
	}
	err = s.customers.Create(ctx, &c)
	if errors.Is(err, repository.ErrConflict) {
		winner, rerr := s.customers.GetByUserID(ctx, user.ID)
		if rerr != nil {
			return model.Customer{}, apperror.Internal(rerr)
		}
		return winner, nil
	}
	if err != nil {
		return model.Customer{}, apperror.Internal(err)
	}
	return c, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
