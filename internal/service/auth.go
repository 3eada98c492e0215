package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
	"github.com/iliyamo/restaurant-booking/internal/utils"
)

// AuthConfig holds token and hashing settings.
type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// TokenPair is returned by register and login.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	TokenType        string    `json:"token_type"`
}

// AuthService registers users and issues and revokes their tokens.
// Refresh tokens are JWTs whose SHA-256 hash must also be on file;
// revoking the row invalidates the token before it expires.
type AuthService struct {
	cfg    AuthConfig
	tx     TxRunner
	users  UserStore
	tokens TokenStore
	now    Clock
}

func NewAuthService(cfg AuthConfig, tx TxRunner, users UserStore, tokens TokenStore) *AuthService {
	return &AuthService{cfg: cfg, tx: tx, users: users, tokens: tokens, now: utcNow}
}

// WithClock replaces the time source, for tests.
func (s *AuthService) WithClock(now Clock) *AuthService {
	s.now = now
	return s
}

// Register creates the user and issues a first token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return model.User{}, TokenPair{}, apperror.InvalidInput("username, email and password are required")
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, TokenPair{}, apperror.Internal(err)
	}
	u := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		IsActive:     true,
	}

	var pair TokenPair
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, &u); err != nil {
			switch {
			case errors.Is(err, repository.ErrEmailExists):
				return apperror.Conflict("email already registered")
			case errors.Is(err, repository.ErrUsernameExists):
				return apperror.Conflict("username already taken")
			case errors.Is(err, repository.ErrConflict):
				return apperror.Conflict("user already exists")
			}
			return apperror.Internal(err)
		}
		var err error
		pair, err = s.issuePair(ctx, u)
		return err
	})
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	zerolog.Ctx(ctx).Info().Uint64("user_id", u.ID).Msg("user registered")
	return u, pair, nil
}

// Login checks the credentials and issues a new token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, TokenPair{}, apperror.Unauthorized("incorrect email or password")
	}
	if err != nil {
		return model.User{}, TokenPair{}, apperror.Internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, TokenPair{}, apperror.Unauthorized("incorrect email or password")
	}
	if !u.IsActive {
		return model.User{}, TokenPair{}, apperror.Unauthorized("account has been deactivated")
	}
	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	raw := strings.TrimSpace(refreshToken)
	claims, err := utils.ParseToken(s.cfg.Secret, raw, utils.TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}
	userID, err := s.tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, apperror.Internal(err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u.Email != claims.Subject {
		return TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}
	if !u.IsActive {
		return TokenPair{}, apperror.Unauthorized("account has been deactivated")
	}
	access, err := utils.IssueToken(s.cfg.Secret, u.Email, utils.TokenTypeAccess, s.cfg.AccessTTL, s.now())
	if err != nil {
		return TokenPair{}, apperror.Internal(err)
	}
	return TokenPair{AccessToken: access.Value, AccessExpiresAt: access.Exp, TokenType: "bearer"}, nil
}

// Logout revokes the given refresh token. Unknown or already revoked
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	raw := strings.TrimSpace(refreshToken)
	if raw == "" {
		return apperror.InvalidInput("refresh_token is required")
	}
	if err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw), s.now()); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// ResolveActiveUser maps an access token subject to an active user.
func (s *AuthService) ResolveActiveUser(ctx context.Context, email string) (model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, apperror.Unauthorized("user not found")
	}
	if err != nil {
		return model.User{}, apperror.Internal(err)
	}
	if !u.IsActive {
		return model.User{}, apperror.Unauthorized("account has been deactivated")
	}
	return u, nil
}

// Secret returns the signing key, for the bearer middleware.
func (s *AuthService) Secret() string { return s.cfg.Secret }

func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	now := s.now()
	access, err := utils.IssueToken(s.cfg.Secret, u.Email, utils.TokenTypeAccess, s.cfg.AccessTTL, now)
	if err != nil {
		return TokenPair{}, apperror.Internal(err)
	}
	refresh, err := utils.IssueToken(s.cfg.Secret, u.Email, utils.TokenTypeRefresh, s.cfg.RefreshTTL, now)
	if err != nil {
		return TokenPair{}, apperror.Internal(err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Value), refresh.Exp); err != nil {
		return TokenPair{}, apperror.Internal(err)
	}
	return TokenPair{
		AccessToken:      access.Value,
		AccessExpiresAt:  access.Exp,
		RefreshToken:     refresh.Value,
		RefreshExpiresAt: refresh.Exp,
		TokenType:        "bearer",
	}, nil
}
