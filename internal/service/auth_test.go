package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/memstore"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newAuth(st *memstore.Store) *AuthService {
	cfg := AuthConfig{Secret: testSecret, AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour, BcryptCost: bcrypt.MinCost}
	return NewAuthService(cfg, st, st.Users(), st.Tokens())
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	st := memstore.New()
	auth := newAuth(st)
	ctx := context.Background()

	u, pair, err := auth.Register(ctx, RegisterInput{Username: "ana", Email: " Ana@Example.com ", Password: "s3cret-pass", FirstName: "Ana"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "ana@example.com" || !u.IsActive || u.PasswordHash == "s3cret-pass" {
		t.Errorf("user = %+v", u)
	}
	if pair.TokenType != "bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Errorf("pair = %+v", pair)
	}
	claims, err := utils.ParseToken(testSecret, pair.AccessToken, utils.TokenTypeAccess)
	if err != nil || claims.Subject != "ana@example.com" {
		t.Fatalf("access claims = %+v, %v", claims, err)
	}

	_, _, err = auth.Register(ctx, RegisterInput{Username: "ana2", Email: "ana@example.com", Password: "x"})
	wantCode(t, err, apperror.CodeConflict, http.StatusConflict)
	_, _, err = auth.Register(ctx, RegisterInput{Username: "ana", Email: "other@example.com", Password: "x"})
	wantCode(t, err, apperror.CodeConflict, http.StatusConflict)
	_, _, err = auth.Register(ctx, RegisterInput{Username: "nobody", Email: "", Password: "x"})
	wantCode(t, err, apperror.CodeInvalidInput, http.StatusBadRequest)

	_, _, err = auth.Login(ctx, "ana@example.com", "wrong")
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)
	_, _, err = auth.Login(ctx, "missing@example.com", "s3cret-pass")
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)
	_, login, err := auth.Login(ctx, "ANA@example.com", "s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}

	refreshed, err := auth.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken != "" {
		t.Errorf("refreshed = %+v", refreshed)
	}
	_, err = auth.Refresh(ctx, login.AccessToken)
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)

	if err := auth.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatal(err)
	}
	_, err = auth.Refresh(ctx, login.RefreshToken)
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)
	if _, err := auth.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout revoked an unrelated token: %v", err)
	}
	wantCode(t, auth.Logout(ctx, " "), apperror.CodeInvalidInput, http.StatusBadRequest)
}

func TestRefreshExpired(t *testing.T) {
	st := memstore.New()
	auth := newAuth(st)
	ctx := context.Background()
	_, pair, err := auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	auth.WithClock(func() time.Time { return time.Now().Add(48 * time.Hour) })
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)
}

func TestDeactivateRevokesAccess(t *testing.T) {
	st := memstore.New()
	auth := newAuth(st)
	profiles := NewProfileService(st, st.Users(), st.Tokens())
	ctx := context.Background()

	u, pair, err := auth.Register(ctx, RegisterInput{Username: "ana", Email: "ana@example.com", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.ResolveActiveUser(ctx, u.Email); err != nil {
		t.Fatal(err)
	}
	if err := profiles.Deactivate(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)
	_, _, err = auth.Login(ctx, "ana@example.com", "pw")
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)
	_, err = auth.ResolveActiveUser(ctx, u.Email)
	wantCode(t, err, apperror.CodeUnauthorized, http.StatusUnauthorized)
	wantCode(t, profiles.Deactivate(ctx, 999), apperror.CodeNotFound, http.StatusNotFound)
}

func TestProfileUpdate(t *testing.T) {
	st := memstore.New()
	profiles := NewProfileService(st, st.Users(), st.Tokens())
	ctx := context.Background()
	u := model.User{Username: "ana", Email: "ana@example.com", FirstName: "Ana", IsActive: true}
	if err := st.Users().Create(ctx, &u); err != nil {
		t.Fatal(err)
	}

	phone := "555-0100"
	p, err := profiles.Update(ctx, u.ID, model.ProfileUpdate{Phone: &phone}, map[string]string{"seating": "window", "diet": "vegan"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Phone != phone || p.FirstName != "Ana" || p.Preferences["seating"] != "window" {
		t.Errorf("profile = %+v", p)
	}

	p, err = profiles.Update(ctx, u.ID, model.ProfileUpdate{}, map[string]string{"seating": "booth"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Preferences["seating"] != "booth" || p.Preferences["diet"] != "vegan" {
		t.Errorf("preferences = %v", p.Preferences)
	}

	_, err = profiles.Update(ctx, u.ID, model.ProfileUpdate{}, map[string]string{" ": "x"})
	wantCode(t, err, apperror.CodeValidation, http.StatusUnprocessableEntity)
	many := map[string]string{}
	for i := 0; i < 51; i++ {
		many[string(rune('a'+i%26))+string(rune('a'+i/26))] = "x"
	}
	_, err = profiles.Update(ctx, u.ID, model.ProfileUpdate{}, many)
	wantCode(t, err, apperror.CodeValidation, http.StatusUnprocessableEntity)
	_, err = profiles.Get(ctx, 999)
	wantCode(t, err, apperror.CodeNotFound, http.StatusNotFound)
}
