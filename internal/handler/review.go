package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(r *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: r}
}

// Rating ranges are checked by the service so that the field errors come
// before the booking lookup.
type createReviewReq struct {
	BookingReference string `json:"booking_reference" validate:"required"`
	Rating           int    `json:"rating"`
	Title            string `json:"title" validate:"max=200"`
	ReviewText       string `json:"review_text" validate:"max=5000"`
	FoodRating       *int   `json:"food_rating"`
	ServiceRating    *int   `json:"service_rating"`
	AmbianceRating   *int   `json:"ambiance_rating"`
	ValueRating      *int   `json:"value_rating"`
	WouldRecommend   *bool  `json:"would_recommend"`
}

func (h *ReviewHandler) Create(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createReviewReq
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rv, err := h.Reviews.Create(ctx, u, service.ReviewInput{
		BookingReference: req.BookingReference,
		Rating:           req.Rating,
		Title:            req.Title,
		ReviewText:       req.ReviewText,
		FoodRating:       req.FoodRating,
		ServiceRating:    req.ServiceRating,
		AmbianceRating:   req.AmbianceRating,
		ValueRating:      req.ValueRating,
		WouldRecommend:   req.WouldRecommend,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Review created successfully",
		"review_id": rv.ID,
		"review":    rv,
	})
}

// ListForRestaurant pages through published reviews. Query: limit,
// offset, sort_by (created_at|rating), sort_order (asc|desc), min_rating.
func (h *ReviewHandler) ListForRestaurant(c echo.Context) error {
	var f model.ReviewFilter
	err := echo.QueryParamsBinder(c).
		Int("limit", &f.Limit).
		Int("offset", &f.Offset).
		String("sort_by", &f.SortBy).
		String("sort_order", &f.Order).
		Int("min_rating", &f.MinRating).
		BindError()
	if err != nil {
		return bindErr(err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Reviews.ListForRestaurant(ctx, c.Param("name"), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ReviewHandler) Summary(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.Reviews.Summary(ctx, c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (h *ReviewHandler) ListForUser(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Reviews.ListForUser(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// ForBooking returns the user's review of a booking, or null.
func (h *ReviewHandler) ForBooking(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rv, err := h.Reviews.ForBooking(ctx, u, c.Param("ref"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rv)
}
