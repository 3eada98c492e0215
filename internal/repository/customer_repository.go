package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const customerColumns = `id, user_id, title, first_name, surname, mobile_country_code, mobile, email,
	receive_email_marketing, receive_sms_marketing, created_at`

type CustomerRepo struct{ db *database.DB }

func NewCustomerRepo(db *database.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// GetByUserID returns the customer profile of a user.
func (r *CustomerRepo) GetByUserID(ctx context.Context, userID uint64) (model.Customer, error) {
	q := r.db.Ext(ctx)
	var c model.Customer
	err := sqlx.GetContext(ctx, q, &c, q.Rebind("SELECT "+customerColumns+" FROM customers WHERE user_id = ? LIMIT 1"), userID)
	return c, notFound(err)
}

// Create inserts c. A second profile for the same user is ErrConflict.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	now := time.Now().UTC()
	id, err := database.InsertID(ctx, r.db.Ext(ctx), `INSERT INTO customers
		(user_id, title, first_name, surname, mobile_country_code, mobile, email,
		 receive_email_marketing, receive_sms_marketing, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.UserID, c.Title, c.FirstName, c.Surname, c.MobileCountryCode, c.Mobile, c.Email,
		c.ReceiveEmailMarketing, c.ReceiveSMSMarketing, now)
	if err != nil {
		return conflict(err, nil)
	}
	c.ID, c.CreatedAt = id, now
	return nil
}
