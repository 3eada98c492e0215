package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

const maxPreferences = 50

// Profile is a user with their stored preferences.
type Profile struct {
	model.User
	Preferences map[string]string `json:"preferences"`
}

type ProfileService struct {
	tx     TxRunner
	users  UserStore
	tokens TokenStore
	now    Clock
}

func NewProfileService(tx TxRunner, users UserStore, tokens TokenStore) *ProfileService {
	return &ProfileService{tx: tx, users: users, tokens: tokens, now: utcNow}
}

func (s *ProfileService) Get(ctx context.Context, userID uint64) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return Profile{}, apperror.NotFound("user")
	}
	if err != nil {
		return Profile{}, apperror.Internal(err)
	}
	prefs, err := s.users.Preferences(ctx, userID)
	if err != nil {
		return Profile{}, apperror.Internal(err)
	}
	return Profile{User: u, Preferences: prefs}, nil
}

// Update writes the set fields of upd and upserts each key of prefs.
// Stored preferences not named in prefs are kept.
func (s *ProfileService) Update(ctx context.Context, userID uint64, upd model.ProfileUpdate, prefs map[string]string) (Profile, error) {
	if len(prefs) > maxPreferences {
		return Profile{}, apperror.Validation("too many preferences", map[string]any{"preferences": maxPreferences})
	}
	for k := range prefs {
		if strings.TrimSpace(k) == "" {
			return Profile{}, apperror.Validation("preference keys must not be empty", nil)
		}
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if !upd.Empty() {
			if err := s.users.UpdateProfile(ctx, userID, upd); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperror.NotFound("user")
				}
				return apperror.Internal(err)
			}
		}
		if prefs != nil {
			if err := s.users.SetPreferences(ctx, userID, prefs); err != nil {
				return apperror.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return Profile{}, err
	}
	return s.Get(ctx, userID)
}

// Deactivate disables the account and revokes every refresh token it holds.
func (s *ProfileService) Deactivate(ctx context.Context, userID uint64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.users.Deactivate(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound("user")
			}
			return apperror.Internal(err)
		}
		if err := s.tokens.RevokeAllForUser(ctx, userID, s.now()); err != nil {
			return apperror.Internal(err)
		}
		return nil
	})
}
