package model

import "time"

// User represents an application user record as stored in the
// `users` table. Login is by email; the username is a second unique
// handle chosen at registration. PasswordHash is never serialised.
//
// Fields:
//  ID                 – primary key identifier of the user.
//  Username           – unique handle.
//  Email              – unique email address, used as the JWT subject.
//  PasswordHash       – bcrypt hashed password.
//  FirstName/LastName – display name parts, may be empty.
//  Phone              – contact number, may be empty.
//  DateOfBirth        – optional; zero when unknown.
//  AccessibilityNeeds – free text shown to restaurants with bookings.
//  IsActive           – false once the account has been deactivated.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type User struct {
	ID                 uint64    `db:"id" json:"id"`
	Username           string    `db:"username" json:"username"`
	Email              string    `db:"email" json:"email"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	FirstName          string    `db:"first_name" json:"first_name"`
	LastName           string    `db:"last_name" json:"last_name"`
	Phone              string    `db:"phone" json:"phone"`
	DateOfBirth        Date      `db:"date_of_birth" json:"date_of_birth"`
	AccessibilityNeeds string    `db:"accessibility_needs" json:"accessibility_needs"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileUpdate carries the optional fields of a profile edit. A nil
// pointer leaves the column untouched.
type ProfileUpdate struct {
	FirstName          *string
	LastName           *string
	Phone              *string
	DateOfBirth        *Date
	AccessibilityNeeds *string
}

// Empty reports whether the update touches no column.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil &&
		u.DateOfBirth == nil && u.AccessibilityNeeds == nil
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the issued token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     `db:"id"`
	UserID    uint64     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}
