package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// ContextLogger stores base, tagged with the request id, in the request
// context. It must run after RequestID.
func ContextLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			l := base.With().Str("request_id", rid).Logger()
			r := c.Request()
			c.SetRequest(r.WithContext(l.WithContext(r.Context())))
			return next(c)
		}
	}
}

// RequestLogger writes one line per request. Errors are rendered by the
// echo error handler before the line is written so the logged status is
// the one the client saw.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			l := zerolog.Ctx(c.Request().Context())
			ev := l.Info()
			switch {
			case v.Status >= 500:
				ev = l.Error().Err(v.Error)
			case v.Status >= 400:
				ev = l.Warn()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
