// Package router assembles the echo instance: global middleware, the
// error handler and every route of the API.
package router // routes are split by surface: system, auth, consumer, restaurants, reviews, user

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/restaurant-booking/internal/config"     // cache and rate limit settings
	"github.com/iliyamo/restaurant-booking/internal/handler"    // HTTP handlers and the error handler
	"github.com/iliyamo/restaurant-booking/internal/middleware" // JWT, token bucket, response cache, logging
	"github.com/iliyamo/restaurant-booking/internal/service"    // business services the handlers call into
	"github.com/iliyamo/restaurant-booking/internal/validation" // validator/v10 adapter for c.Validate
)

// Deps are the services and settings the routes are built from. Redis
// and DB may be nil; caching and rate limiting are then disabled and the
// health check does not probe storage.
type Deps struct {
	Log     zerolog.Logger
	Version string

	Redis         *redis.Client
	Cache         config.CacheConfig
	RateLimit     config.RateLimitConfig
	AuthRateLimit config.RateLimitConfig
	DB            handler.Pinger

	Auth         *service.AuthService
	Profiles     *service.ProfileService
	Restaurants  *service.RestaurantService
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Reviews      *service.ReviewService
}

// New returns a configured echo instance serving the whole API.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.Echo{}           // c.Validate runs the struct tags of JSON bodies
	e.HTTPErrorHandler = handler.ErrorHandler // every error renders as {error, code, details}

	// /api/restaurants/ and /api/restaurants hit the same route.
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(
		echomw.Recover(), // a panicking handler becomes a 500
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		middleware.ContextLogger(d.Log), // request-scoped zerolog logger carrying the request id
		middleware.RequestLogger(),      // one access log line per request
		middleware.Prometheus(),         // http_requests_total and latency per route
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept},
		}),
		// Runs before JWTAuth, so the limiter verifies the bearer token
		// itself to key callers by user.
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Auth.Secret()),
	)

	bearer := middleware.JWTAuth(d.Auth.Secret(), d.Auth) // attached per group or per route
	cache := middleware.NewRedisCache(d.Cache, d.Redis)   // public GETs only

	registerSystem(e, handler.NewHealthHandler(d.DB, d.Version))
	registerAuth(e, handler.NewAuthHandler(d.Auth), bearer, middleware.NewTokenBucket(d.AuthRateLimit, d.Redis, d.Auth.Secret()))
	registerConsumer(e, handler.NewBookingHandler(d.Bookings, d.Availability), bearer)
	registerRestaurants(e, handler.NewRestaurantHandler(d.Restaurants, d.Availability), cache)
	registerReviews(e, handler.NewReviewHandler(d.Reviews), bearer, cache)
	registerUser(e, handler.NewUserHandler(d.Profiles, d.Bookings), handler.NewBookingHistoryHandler(d.Bookings), bearer)
	return e
}

// registerSystem mounts the unauthenticated operational endpoints.
func registerSystem(e *echo.Echo, h *handler.HealthHandler) {
	// Health reports storage reachability; /healthz is kept for probes.
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Health)
	// Info lists the service name, version and the main endpoints.
	e.GET("/api", h.Info)
	e.GET("/api/info", h.Info)
	// Prometheus scrape endpoint.
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// registerAuth mounts account creation and the token endpoints. The
// credential endpoints carry the stricter auth limiter.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, bearer, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	// Create an account and return an access/refresh pair.
	g.POST("/register", a.Register, limit)
	// Exchange email and password for an access/refresh pair.
	g.POST("/login", a.Login, limit)
	// Issue a new access token; the refresh token is not rotated.
	g.POST("/refresh", a.Refresh, limit)
	// Revoke a refresh token. No access token required; repeated calls succeed.
	g.POST("/logout", a.Logout)
	// Return the authenticated user.
	g.GET("/me", a.Me, bearer)
}
