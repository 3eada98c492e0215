package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

func render(t *testing.T, method string, err error) (int, ErrorBody) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/", nil), rec)
	ErrorHandler(err, c)
	var body ErrorBody
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"app error", apperror.NotFound("booking"), http.StatusNotFound, apperror.CodeNotFound, "booking not found"},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, apperror.CodeNotFound, "Not Found"},
		{"echo method", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, apperror.CodeInvalidInput, "Method Not Allowed"},
		{"plain error hidden", errors.New("db exploded"), http.StatusInternalServerError, apperror.CodeInternal, "internal server error"},
		{"binding error", echo.NewBindingError("PartySize", []string{"x"}, "invalid", nil), http.StatusUnprocessableEntity, apperror.CodeValidation, "PartySize: invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := render(t, http.MethodGet, tt.err)
			if status != tt.wantStatus || body.Code != tt.wantCode || body.Error != tt.wantMsg {
				t.Errorf("got %d %+v, want %d %s %q", status, body, tt.wantStatus, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestErrorHandlerHead(t *testing.T) {
	status, body := render(t, http.MethodHead, apperror.Unauthorized("no"))
	if status != http.StatusUnauthorized || body.Code != "" {
		t.Errorf("got %d %+v", status, body)
	}
}

func formContext(values url.Values) echo.Context {
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindPointerTracksPresence(t *testing.T) {
	c := formContext(url.Values{"PartySize": {"6"}, "SpecialRequests": {""}})
	var upd model.BookingUpdate
	b := echo.FormFieldBinder(c)
	bindPointer(b, "VisitDate", model.ParseDate, &upd.VisitDate)
	bindPointer(b, "PartySize", parseInt, &upd.PartySize)
	bindPointer(b, "SpecialRequests", parseString, &upd.SpecialRequests)
	bindPointer(b, "IsLeaveTimeConfirmed", parseBool, &upd.IsLeaveTimeConfirmed)
	if err := b.BindError(); err != nil {
		t.Fatal(err)
	}
	if upd.VisitDate != nil || upd.IsLeaveTimeConfirmed != nil {
		t.Errorf("absent fields were set: %+v", upd)
	}
	if upd.PartySize == nil || *upd.PartySize != 6 {
		t.Errorf("PartySize = %v", upd.PartySize)
	}
	if upd.SpecialRequests == nil || *upd.SpecialRequests != "" {
		t.Errorf("SpecialRequests = %v", upd.SpecialRequests)
	}
}

func TestBindRequired(t *testing.T) {
	c := formContext(url.Values{"VisitDate": {"2026-13-01"}})
	var d model.Date
	b := echo.FormFieldBinder(c)
	bindRequired(b, "VisitDate", model.ParseDate, &d)
	err := bindErr(b.BindError())
	if !apperror.Is(err, apperror.CodeValidation) {
		t.Fatalf("err = %v", err)
	}

	c = formContext(url.Values{})
	b = echo.FormFieldBinder(c)
	bindRequired(b, "VisitDate", model.ParseDate, &d)
	if err := bindErr(b.BindError()); !apperror.Is(err, apperror.CodeValidation) {
		t.Fatalf("missing field err = %v", err)
	}
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "on": true, "1": true, "False": false, "": false, "no": false} {
		got, err := parseBool(in)
		if err != nil || got != want {
			t.Errorf("parseBool(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseBool("maybe"); err == nil {
		t.Error("parseBool(maybe) succeeded")
	}
}
