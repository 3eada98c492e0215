package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/utils"
)

// UserResolver maps a token subject to an active account.
type UserResolver interface {
	ResolveActiveUser(ctx context.Context, email string) (model.User, error)
}

// JWTAuth validates a Bearer access token and loads its user. Handlers
// read the user with CurrentUser. Any failure is a 401.
func JWTAuth(secret string, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return apperror.Unauthorized("missing bearer token")
			}
			claims, err := utils.ParseToken(secret, raw, utils.TokenTypeAccess)
			if err != nil {
				return apperror.Unauthorized("invalid or expired token")
			}
			ctx := c.Request().Context()
			u, err := users.ResolveActiveUser(ctx, claims.Subject)
			if err != nil {
				return err
			}

			c.Set(userKey, u)
			l := zerolog.Ctx(ctx).With().Uint64("user_id", u.ID).Logger()
			c.SetRequest(c.Request().WithContext(l.WithContext(ctx)))
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", false
	}
	return raw, true
}

// userLabel is the rate-limit identity of the caller: the subject of a
// valid access token, the resolved user when JWTAuth already ran, or
// "anon". The global limiter runs before JWTAuth, so it reads the token
// itself.
func userLabel(c echo.Context, secret string) string {
	if secret != "" {
		if raw, ok := bearerToken(c); ok {
			if claims, err := utils.ParseToken(secret, raw, utils.TokenTypeAccess); err == nil && claims.Subject != "" {
				return claims.Subject
			}
		}
	}
	if u, ok := CurrentUser(c); ok {
		return strconv.FormatUint(u.ID, 10)
	}
	return "anon"
}
