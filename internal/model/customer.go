package model

import "time"

// Customer is the guest profile attached to bookings. Each user has at
// most one; it is created on their first booking from the submitted
// guest details, falling back to the account's own name and email.
type Customer struct {
	ID                    uint64    `db:"id" json:"id"`
	UserID                uint64    `db:"user_id" json:"user_id"`
	Title                 string    `db:"title" json:"title"`
	FirstName             string    `db:"first_name" json:"first_name"`
	Surname               string    `db:"surname" json:"surname"`
	MobileCountryCode     string    `db:"mobile_country_code" json:"mobile_country_code"`
	Mobile                string    `db:"mobile" json:"mobile"`
	Email                 string    `db:"email" json:"email"`
	ReceiveEmailMarketing bool      `db:"receive_email_marketing" json:"receive_email_marketing"`
	ReceiveSMSMarketing   bool      `db:"receive_sms_marketing" json:"receive_sms_marketing"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// CustomerSummary is the subset of guest details echoed on bookings.
type CustomerSummary struct {
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
}

// CustomerDetails is the guest information submitted with a booking.
type CustomerDetails struct {
	Title                 string
	FirstName             string
	Surname               string
	MobileCountryCode     string
	Mobile                string
	Email                 string
	ReceiveEmailMarketing bool
	ReceiveSMSMarketing   bool
}
