package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/validation"
)

// ErrorBody is the JSON rendered for every failed request.
type ErrorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders errors returned by handlers and middleware. It is
// installed as echo's HTTPErrorHandler.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	ae := toAppError(err)
	log := zerolog.Ctx(c.Request().Context())
	if ae.HTTPStatus >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", ae.Code).Msg("request failed")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(ae.HTTPStatus)
	} else {
		werr = c.JSON(ae.HTTPStatus, ErrorBody{Error: ae.Message, Code: ae.Code, Details: ae.Details})
	}
	if werr != nil {
		log.Warn().Err(werr).Msg("write error response")
	}
}

func toAppError(err error) *apperror.AppError {
	var ae *apperror.AppError
	if errors.As(err, &ae) {
		return ae
	}
	var be *echo.BindingError
	if errors.As(err, &be) {
		return apperror.From(bindErr(be))
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		if he.Code >= http.StatusInternalServerError {
			return &apperror.AppError{Code: apperror.CodeInternal, Message: msg, HTTPStatus: he.Code, Err: err}
		}
		return apperror.New(codeForStatus(he.Code), msg, he.Code)
	}
	return apperror.Internal(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return apperror.CodeUnauthorized
	case http.StatusForbidden:
		return apperror.CodeForbidden
	case http.StatusNotFound:
		return apperror.CodeNotFound
	case http.StatusConflict:
		return apperror.CodeConflict
	case http.StatusUnprocessableEntity:
		return apperror.CodeValidation
	case http.StatusTooManyRequests:
		return apperror.CodeRateLimited
	}
	return apperror.CodeInvalidInput
}

// bindErr turns echo binder failures into client errors. Bad field values
// are 422 with the offending field named; malformed bodies are 400.
func bindErr(err error) error {
	if err == nil {
		return nil
	}
	var be *echo.BindingError
	if errors.As(err, &be) {
		msg := fmt.Sprintf("%s: %v", be.Field, be.Message)
		return apperror.Validation(msg, map[string]any{
			"fields": []validation.FieldError{{Field: be.Field, Message: fmt.Sprint(be.Message)}},
		})
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return apperror.InvalidInput(fmt.Sprint(he.Message))
	}
	return err
}
