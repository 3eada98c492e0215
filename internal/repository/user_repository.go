package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, phone,
	date_of_birth, accessibility_needs, is_active, created_at, updated_at`

type UserRepo struct{ db *database.DB }

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u and sets its ID and timestamps. The email is stored
// lower-cased.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	id, err := database.InsertID(ctx, r.db.Ext(ctx), `INSERT INTO users
		(username, email, password_hash, first_name, last_name, phone, date_of_birth,
		 accessibility_needs, is_active, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.DateOfBirth,
		u.AccessibilityNeeds, true, now, now)
	if err != nil {
		return conflict(err, map[string]error{"email": ErrEmailExists, "username": ErrUsernameExists})
	}
	u.ID, u.IsActive, u.CreatedAt, u.UpdatedAt = id, true, now, now
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	q := r.db.Ext(ctx)
	var u model.User
	err := sqlx.GetContext(ctx, q, &u,
		q.Rebind("SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1"),
		strings.ToLower(strings.TrimSpace(email)))
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	q := r.db.Ext(ctx)
	var u model.User
	err := sqlx.GetContext(ctx, q, &u, q.Rebind("SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1"), id)
	return u, notFound(err)
}

// UpdateProfile writes the non-nil fields of upd.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, upd model.ProfileUpdate) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.DateOfBirth != nil {
		add("date_of_birth", *upd.DateOfBirth)
	}
	if upd.AccessibilityNeeds != nil {
		add("accessibility_needs", *upd.AccessibilityNeeds)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	q := r.db.Ext(ctx)
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate marks the account inactive.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	q := r.db.Ext(ctx)
	_, err := q.ExecContext(ctx, q.Rebind("UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?"),
		false, time.Now().UTC(), id)
	return err
}

// Preferences returns the user's key/value preferences.
func (r *UserRepo) Preferences(ctx context.Context, id uint64) (map[string]string, error) {
	q := r.db.Ext(ctx)
	var rows []struct {
		Key   string `db:"pref_key"`
		Value string `db:"pref_value"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows,
		q.Rebind("SELECT pref_key, pref_value FROM user_preferences WHERE user_id = ? ORDER BY pref_key"), id); err != nil {
		return nil, err
	}
	prefs := make(map[string]string, len(rows))
	for _, row := range rows {
		prefs[row.Key] = row.Value
	}
	return prefs, nil
}

// SetPreferences upserts each key of prefs. Keys not present are kept.
func (r *UserRepo) SetPreferences(ctx context.Context, id uint64, prefs map[string]string) error {
	if len(prefs) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		q := r.db.Ext(ctx)
		for k, v := range prefs {
			if _, err := q.ExecContext(ctx, q.Rebind(
				"DELETE FROM user_preferences WHERE user_id = ? AND pref_key = ?"), id, k); err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx, q.Rebind(
				"INSERT INTO user_preferences (user_id, pref_key, pref_value) VALUES (?,?,?)"), id, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}
