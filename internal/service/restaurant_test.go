package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/iliyamo/restaurant-booking/internal/apperror"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

func TestRestaurantCatalogue(t *testing.T) {
	f := newFixture(t)
	svc := NewRestaurantService(f.store.Restaurants(), f.store.Reviews())
	ctx := context.Background()

	page, err := svc.List(ctx, model.RestaurantFilter{Features: []string{" Organic ", ""}})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Restaurants[0].Name != "Green Garden Cafe" || page.Limit != DefaultRestaurantLimit {
		t.Fatalf("page = %+v", page)
	}
	page, err = svc.List(ctx, model.RestaurantFilter{Limit: 500})
	if err != nil || page.Limit != MaxRestaurantLimit || page.Total != 5 {
		t.Fatalf("page = %+v, %v", page, err)
	}
	_, err = svc.List(ctx, model.RestaurantFilter{MinRating: 5.5})
	wantCode(t, err, apperror.CodeValidation, http.StatusUnprocessableEntity)

	r := f.restaurant(t, "Bella Vista Italian")
	d, err := svc.Get(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != r.Name || d.RecentReviews == nil {
		t.Errorf("detail = %+v", d)
	}
	_, err = svc.Get(ctx, 9999)
	wantCode(t, err, apperror.CodeNotFound, http.StatusNotFound)

	cuisines, _ := svc.Cuisines(ctx)
	if len(cuisines) != 5 || cuisines[0] != "European" {
		t.Errorf("cuisines = %v", cuisines)
	}
	if len(svc.PriceRanges()) != 4 {
		t.Errorf("price ranges = %v", svc.PriceRanges())
	}
}
