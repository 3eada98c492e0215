package validation

import (
	"net/http"
	"testing"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Ref      string `form:"ref" validate:"omitempty,booking_ref"`
}

func TestStruct(t *testing.T) {
	if err := Struct(&registerRequest{Username: "ana", Email: "ana@example.com", Password: "secret", Ref: "ABC1234"}); err != nil {
		t.Fatalf("valid request: %v", err)
	}

	err := Struct(&registerRequest{Username: "an", Email: "nope", Ref: "abc"})
	ae := apperror.From(err)
	if ae.HTTPStatus != http.StatusUnprocessableEntity || ae.Code != apperror.CodeValidation {
		t.Fatalf("got %d %s", ae.HTTPStatus, ae.Code)
	}
	fields, ok := ae.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Fatalf("details = %#v", ae.Details)
	}
	want := map[string]string{
		"username": "username must be at least 3 characters",
		"email":    "email must be a valid email address",
		"password": "password is required",
		"ref":      "ref must be a 7 character booking reference",
	}
	for _, f := range fields {
		if want[f.Field] != f.Message {
			t.Errorf("%s: %q, want %q", f.Field, f.Message, want[f.Field])
		}
	}
}

func TestEchoAdapter(t *testing.T) {
	if err := (Echo{}).Validate(&registerRequest{}); err == nil {
		t.Fatal("expected error")
	}
}
