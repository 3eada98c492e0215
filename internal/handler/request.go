package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func currentUser(c echo.Context) (model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return model.User{}, apperror.Unauthorized("authentication required")
	}
	return u, nil
}

// bindJSON decodes the body into dst and runs the registered validator.
func bindJSON(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return bindErr(err)
	}
	return c.Validate(dst)
}

// bindValue sets *dst from the named field when it is present.
func bindValue[T any](b *echo.ValueBinder, name string, parse func(string) (T, error), dst *T) {
	b.CustomFunc(name, parseInto(name, parse, func(v T) { *dst = v }))
}

// bindRequired sets *dst from the named field and fails when it is absent.
func bindRequired[T any](b *echo.ValueBinder, name string, parse func(string) (T, error), dst *T) {
	b.MustCustomFunc(name, parseInto(name, parse, func(v T) { *dst = v }))
}

// bindPointer sets *dst only when the field was sent, leaving it nil
// otherwise. PATCH handlers use it to tell "absent" from "empty".
func bindPointer[T any](b *echo.ValueBinder, name string, parse func(string) (T, error), dst **T) {
	b.CustomFunc(name, parseInto(name, parse, func(v T) { *dst = &v }))
}

func parseInto[T any](name string, parse func(string) (T, error), set func(T)) func([]string) []error {
	return func(vals []string) []error {
		v, err := parse(vals[0])
		if err != nil {
			return []error{echo.NewBindingError(name, vals[:1], err.Error(), err)}
		}
		set(v)
		return nil
	}
}

func parseString(s string) (string, error) { return s, nil }

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func parseInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// parseBool accepts the spellings HTML forms and curl users send.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "on", "yes", "y":
		return true, nil
	case "0", "f", "false", "off", "no", "n", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.InvalidInput(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

func message(text string) echo.Map { return echo.Map{"message": text} }
