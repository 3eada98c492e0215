package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/restaurant-booking/internal/memstore"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	st := memstore.New()
	st.Seed(model.DateOf(time.Now().UTC()), 7)

	auth := service.NewAuthService(service.AuthConfig{
		Secret:     "router-test-secret-0123456789abcdef",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, st, st.Users(), st.Tokens())
	bookings := service.NewBookingService(service.BookingDeps{
		Tx:          st,
		Restaurants: st.Restaurants(),
		Slots:       st.Slots(),
		Bookings:    st.Bookings(),
		Reasons:     st.Reasons(),
		Reviews:     st.Reviews(),
		Customers:   service.NewCustomerService(st.Customers()),
	})
	return New(Deps{
		Log:          zerolog.Nop(),
		Version:      "test",
		Auth:         auth,
		Profiles:     service.NewProfileService(st, st.Users(), st.Tokens()),
		Restaurants:  service.NewRestaurantService(st.Restaurants(), st.Reviews()),
		Availability: service.NewAvailabilityService(st.Restaurants(), st.Slots(), st.Bookings(), 0),
		Bookings:     bookings,
		Reviews:      service.NewReviewService(st, st.Restaurants(), st.Bookings(), st.Reviews()),
	})
}

type request struct {
	method, path, token string
	json                any
	form                url.Values
	raw                 string
}

func do(t *testing.T, e *echo.Echo, r request) *httptest.ResponseRecorder {
	t.Helper()
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.json != nil:
		b, err := json.Marshal(r.json)
		if err != nil {
			t.Fatal(err)
		}
		body, contentType = strings.NewReader(string(b)), echo.MIMEApplicationJSON
	case r.form != nil:
		body, contentType = strings.NewReader(r.form.Encode()), echo.MIMEApplicationForm
	case r.raw != "":
		body, contentType = strings.NewReader(r.raw), echo.MIMEApplicationJSON
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, status, rec.Body.String())
	}
}

func register(t *testing.T, e *echo.Echo, username string) (access, refresh string) {
	t.Helper()
	rec := do(t, e, request{method: http.MethodPost, path: "/api/auth/register", json: map[string]string{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "correct-horse",
		"first_name": "Ana",
		"last_name":  "Lopez",
	}})
	expect(t, rec, http.StatusCreated)
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, rec, &out)
	return out.AccessToken, out.RefreshToken
}

const consumer = "/api/ConsumerApi/v1/Restaurant/TheHungryUnicorn"

func TestBookingRoundTrip(t *testing.T) {
	e := newServer(t)
	register(t, e, "ana")

	rec := do(t, e, request{method: http.MethodPost, path: "/api/auth/login", json: map[string]string{
		"username": "ana@example.com", "password": "correct-horse",
	}})
	expect(t, rec, http.StatusOK)
	var login struct {
		AccessToken string `json:"access_token"`
		User        struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, rec, &login)
	if login.User.Username != "ana" {
		t.Errorf("login user = %+v", login.User)
	}
	token := login.AccessToken

	visit := model.DateOf(time.Now().UTC()).AddDays(2).String()
	rec = do(t, e, request{method: http.MethodPost, path: consumer + "/BookingWithStripeToken", token: token, form: url.Values{
		"VisitDate":           {visit},
		"VisitTime":           {"19:00"},
		"PartySize":           {"4"},
		"ChannelCode":         {"ONLINE"},
		"SpecialRequests":     {"window seat"},
		"Customer[FirstName]": {"Ana"},
		"Customer[Surname]":   {"Lopez"},
		"Customer[Email]":     {"ana@example.com"},
	}})
	expect(t, rec, http.StatusCreated)
	var created struct {
		Reference  string `json:"booking_reference"`
		Restaurant string `json:"restaurant"`
		Status     string `json:"status"`
	}
	decode(t, rec, &created)
	if len(created.Reference) != 7 || created.Restaurant != "TheHungryUnicorn" || created.Status != "confirmed" {
		t.Fatalf("created = %+v", created)
	}
	bookingPath := consumer + "/Booking/" + created.Reference

	rec = do(t, e, request{method: http.MethodGet, path: bookingPath, token: token})
	expect(t, rec, http.StatusOK)
	var got model.BookingDetail
	decode(t, rec, &got)
	if got.Reference != created.Reference || got.PartySize != 4 || got.VisitDate.String() != visit ||
		got.SpecialRequests != "window seat" || got.Customer.Surname != "Lopez" {
		t.Errorf("fetched = %+v", got)
	}

	rec = do(t, e, request{method: http.MethodPatch, path: bookingPath, token: token, form: url.Values{"PartySize": {"2"}}})
	expect(t, rec, http.StatusOK)
	var updated struct {
		Booking model.BookingDetail `json:"booking"`
	}
	decode(t, rec, &updated)
	if updated.Booking.PartySize != 2 || updated.Booking.SpecialRequests != "window seat" {
		t.Errorf("updated = %+v", updated.Booking)
	}

	rec = do(t, e, request{method: http.MethodPost, path: bookingPath + "/Cancel", token: token, form: url.Values{"cancellationReasonId": {"1"}}})
	expect(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "has been successfully cancelled") {
		t.Errorf("cancel body = %s", rec.Body.String())
	}

	rec = do(t, e, request{method: http.MethodPost, path: bookingPath + "/Cancel", token: token, form: url.Values{"cancellationReasonId": {"1"}}})
	expect(t, rec, http.StatusConflict)
	var failure struct {
		Code string `json:"code"`
	}
	decode(t, rec, &failure)
	if failure.Code != "ALREADY_CANCELLED" {
		t.Errorf("code = %q", failure.Code)
	}
}

func TestBookingsAreScopedToOwner(t *testing.T) {
	e := newServer(t)
	ana, _ := register(t, e, "ana")
	bob, _ := register(t, e, "bob")

	visit := model.DateOf(time.Now().UTC()).AddDays(1).String()
	rec := do(t, e, request{method: http.MethodPost, path: consumer + "/BookingWithStripeToken", token: ana, form: url.Values{
		"VisitDate": {visit}, "VisitTime": {"12:30"}, "PartySize": {"2"},
	}})
	expect(t, rec, http.StatusCreated)
	var created struct {
		Reference string `json:"booking_reference"`
	}
	decode(t, rec, &created)

	rec = do(t, e, request{method: http.MethodGet, path: consumer + "/Booking/" + created.Reference, token: bob})
	expect(t, rec, http.StatusNotFound)

	rec = do(t, e, request{method: http.MethodGet, path: "/api/user/bookings", token: bob})
	expect(t, rec, http.StatusOK)
	var list struct {
		Total int `json:"total"`
	}
	decode(t, rec, &list)
	if list.Total != 0 {
		t.Errorf("bob sees %d bookings", list.Total)
	}
}

func TestFormValidation(t *testing.T) {
	e := newServer(t)
	token, _ := register(t, e, "ana")

	tests := []struct {
		name  string
		path  string
		form  url.Values
		field string
	}{
		{"missing date", "/AvailabilitySearch", url.Values{"PartySize": {"2"}}, "VisitDate"},
		{"bad date", "/AvailabilitySearch", url.Values{"VisitDate": {"01/02/2026"}, "PartySize": {"2"}}, "VisitDate"},
		{"bad party size", "/AvailabilitySearch", url.Values{"VisitDate": {"2026-11-02"}, "PartySize": {"two"}}, "PartySize"},
		{"missing time", "/BookingWithStripeToken", url.Values{"VisitDate": {"2026-11-02"}, "PartySize": {"2"}}, "VisitTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, request{method: http.MethodPost, path: consumer + tt.path, token: token, form: tt.form})
			expect(t, rec, http.StatusUnprocessableEntity)
			var body struct {
				Code    string `json:"code"`
				Details struct {
					Fields []struct {
						Field string `json:"field"`
					} `json:"fields"`
				} `json:"details"`
			}
			decode(t, rec, &body)
			if body.Code != "VALIDATION_ERROR" || len(body.Details.Fields) != 1 || body.Details.Fields[0].Field != tt.field {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestAvailabilitySearch(t *testing.T) {
	e := newServer(t)
	token, _ := register(t, e, "ana")

	visit := model.DateOf(time.Now().UTC()).AddDays(1).String()
	rec := do(t, e, request{method: http.MethodPost, path: consumer + "/AvailabilitySearch", token: token, form: url.Values{
		"VisitDate": {visit}, "PartySize": {"2"}, "ChannelCode": {"ONLINE"},
	}})
	expect(t, rec, http.StatusOK)
	var res service.AvailabilityResult
	decode(t, rec, &res)
	if res.Restaurant != "TheHungryUnicorn" || res.TotalSlots != 8 || len(res.Slots) != 8 {
		t.Errorf("result = %+v", res)
	}

	rec = do(t, e, request{method: http.MethodPost, path: "/api/ConsumerApi/v1/Restaurant/Nowhere/AvailabilitySearch", token: token, form: url.Values{
		"VisitDate": {visit}, "PartySize": {"2"},
	}})
	expect(t, rec, http.StatusNotFound)
}

func TestBearerRequired(t *testing.T) {
	e := newServer(t)
	for _, path := range []string{"/api/auth/me", "/api/user/profile", consumer + "/Booking/ABC1234"} {
		rec := do(t, e, request{method: http.MethodGet, path: path})
		expect(t, rec, http.StatusUnauthorized)
		var body struct {
			Code string `json:"code"`
		}
		decode(t, rec, &body)
		if body.Code != "UNAUTHORIZED" {
			t.Errorf("%s: code = %q", path, body.Code)
		}
	}
}

func TestRefreshAndLogout(t *testing.T) {
	e := newServer(t)
	_, refresh := register(t, e, "ana")

	rec := do(t, e, request{method: http.MethodPost, path: "/api/auth/refresh", json: map[string]string{"refresh_token": refresh}})
	expect(t, rec, http.StatusOK)
	var pair struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, rec, &pair)

	rec = do(t, e, request{method: http.MethodGet, path: "/api/auth/me", token: pair.AccessToken})
	expect(t, rec, http.StatusOK)

	for i := 0; i < 2; i++ {
		rec = do(t, e, request{method: http.MethodPost, path: "/api/auth/logout", json: map[string]string{"refresh_token": refresh}})
		expect(t, rec, http.StatusOK)
	}
	rec = do(t, e, request{method: http.MethodPost, path: "/api/auth/refresh", json: map[string]string{"refresh_token": refresh}})
	expect(t, rec, http.StatusUnauthorized)
}

func TestProfile(t *testing.T) {
	e := newServer(t)
	token, _ := register(t, e, "ana")

	rec := do(t, e, request{method: http.MethodPatch, path: "/api/user/profile", token: token, raw: `{"is_active": false}`})
	expect(t, rec, http.StatusBadRequest)

	rec = do(t, e, request{method: http.MethodPatch, path: "/api/user/profile", token: token, raw: `{"phone":"555-0100","preferences":{"seating":"window"}}`})
	expect(t, rec, http.StatusOK)
	var p service.Profile
	decode(t, rec, &p)
	if p.Phone != "555-0100" || p.Preferences["seating"] != "window" || p.FirstName != "Ana" {
		t.Errorf("profile = %+v", p)
	}

	rec = do(t, e, request{method: http.MethodDelete, path: "/api/user/account", token: token})
	expect(t, rec, http.StatusOK)
	rec = do(t, e, request{method: http.MethodGet, path: "/api/user/profile", token: token})
	expect(t, rec, http.StatusUnauthorized)
}

func TestPublicEndpoints(t *testing.T) {
	e := newServer(t)

	rec := do(t, e, request{method: http.MethodGet, path: "/health"})
	expect(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Errorf("health = %s", rec.Body.String())
	}

	rec = do(t, e, request{method: http.MethodGet, path: "/api/restaurants/?price_range=$$$"})
	expect(t, rec, http.StatusOK)
	var page service.RestaurantPage
	decode(t, rec, &page)
	if len(page.Restaurants) != 1 || page.Restaurants[0].Name != "TheHungryUnicorn" {
		t.Errorf("restaurants = %+v", page.Restaurants)
	}

	rec = do(t, e, request{method: http.MethodGet, path: "/api/restaurants/abc"})
	expect(t, rec, http.StatusBadRequest)

	availability := fmt.Sprintf("/api/restaurants/%d/availability", page.Restaurants[0].ID)
	visit := model.DateOf(time.Now().UTC()).AddDays(1).String()
	rec = do(t, e, request{method: http.MethodGet, path: availability + "?visit_date=" + visit + "&party_size=2"})
	expect(t, rec, http.StatusOK)
	var open service.AvailabilityResult
	decode(t, rec, &open)
	if open.RestaurantID != page.Restaurants[0].ID || open.TotalSlots != 8 {
		t.Errorf("availability = %+v", open)
	}
	rec = do(t, e, request{method: http.MethodGet, path: availability + "?visit_date=" + visit})
	expect(t, rec, http.StatusUnprocessableEntity)

	rec = do(t, e, request{method: http.MethodGet, path: "/api/ConsumerApi/v1/CancellationReasons"})
	expect(t, rec, http.StatusOK)
	var reasons []model.CancellationReason
	decode(t, rec, &reasons)
	if len(reasons) != 5 {
		t.Errorf("reasons = %+v", reasons)
	}

	rec = do(t, e, request{method: http.MethodGet, path: "/api/reviews/restaurant/TheHungryUnicorn/summary"})
	expect(t, rec, http.StatusOK)

	rec = do(t, e, request{method: http.MethodGet, path: "/no/such/route"})
	expect(t, rec, http.StatusNotFound)

	rec = do(t, e, request{method: http.MethodGet, path: "/metrics"})
	expect(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("metrics output lacks the request counter")
	}
}
