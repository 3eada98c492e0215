// Package repository implements the SQL storage for the booking API on
// top of sqlx. Every repository reaches the database through
// database.DB.Ext, so calls made inside DB.WithTx join the transaction.
//
// Queries are written with ? placeholders and passed through Rebind, which
// lets the same statements run on MySQL and PostgreSQL.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-booking/internal/database"
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the caller. Ownership-scoped lookups return it for rows belonging to
// someone else.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write hits a unique constraint that has
// no more specific sentinel.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they may see but not change.
var ErrForbidden = errors.New("forbidden")

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)

// notFound maps sql.ErrNoRows onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// conflict maps unique violations onto ErrConflict, or onto the sentinel
// registered for the violated constraint.
func conflict(err error, byConstraint map[string]error) error {
	name, ok := database.UniqueViolation(err)
	if !ok {
		return err
	}
	for key, sentinel := range byConstraint {
		if strings.Contains(name, key) {
			return sentinel
		}
	}
	return ErrConflict
}
