package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range u.s.st.users {
		if existing.Email == user.Email {
			return repository.ErrEmailExists
		}
		if existing.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	now := time.Now().UTC()
	user.ID = u.s.id()
	user.CreatedAt, user.UpdatedAt = now, now
	u.s.st.users[user.ID] = *user
	return nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range u.s.st.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (u *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.st.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (u *Users) UpdateProfile(_ context.Context, id uint64, upd model.ProfileUpdate) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		user.Phone = *upd.Phone
	}
	if upd.DateOfBirth != nil {
		user.DateOfBirth = *upd.DateOfBirth
	}
	if upd.AccessibilityNeeds != nil {
		user.AccessibilityNeeds = *upd.AccessibilityNeeds
	}
	user.UpdatedAt = time.Now().UTC()
	u.s.st.users[id] = user
	return nil
}

func (u *Users) Deactivate(_ context.Context, id uint64) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsActive = false
	u.s.st.users[id] = user
	return nil
}

func (u *Users) Preferences(_ context.Context, id uint64) (map[string]string, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	out := map[string]string{}
	for k, v := range u.s.st.prefs[id] {
		out[k] = v
	}
	return out, nil
}

func (u *Users) SetPreferences(_ context.Context, id uint64, prefs map[string]string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.st.prefs[id] == nil {
		u.s.st.prefs[id] = map[string]string{}
	}
	for k, v := range prefs {
		u.s.st.prefs[id][k] = v
	}
	return nil
}

type Tokens struct{ s *Store }

func (t *Tokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, row := range t.s.st.tokens {
		if row.Hash == hash {
			return repository.ErrConflict
		}
	}
	t.s.st.tokens = append(t.s.st.tokens, tokenRow{UserID: userID, Hash: hash, ExpiresAt: exp})
	return nil
}

func (t *Tokens) ValidateRefresh(_ context.Context, hash string, now time.Time) (uint64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, row := range t.s.st.tokens {
		if row.Hash == hash {
			if row.RevokedAt != nil || now.After(row.ExpiresAt) {
				return 0, repository.ErrNotFound
			}
			return row.UserID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (t *Tokens) RevokeByHash(_ context.Context, hash string, now time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, row := range t.s.st.tokens {
		if row.Hash == hash && row.RevokedAt == nil {
			at := now
			t.s.st.tokens[i].RevokedAt = &at
		}
	}
	return nil
}

func (t *Tokens) RevokeAllForUser(_ context.Context, userID uint64, now time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, row := range t.s.st.tokens {
		if row.UserID == userID && row.RevokedAt == nil {
			at := now
			t.s.st.tokens[i].RevokedAt = &at
		}
	}
	return nil
}
