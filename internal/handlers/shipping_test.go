package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/indicrafts/api/internal/domain"
	"github.com/indicrafts/api/internal/platform/config"
	"github.com/indicrafts/api/internal/services"
)

type handlerGeocoder struct {
	location *domain.Location
	err      error
}

func (g *handlerGeocoder) Resolve(ctx context.Context, postalCode string) (*domain.Location, error) {
	return g.location, g.err
}

func newShippingRouter(t *testing.T, geocoder services.GeocodeResolver) http.Handler {
	t.Helper()
	engine, err := services.NewShippingEngine(services.ShippingEngineDeps{
		Config: config.ShippingConfig{
			HubLatitude:    22.3149,
			HubLongitude:   87.3105,
			CommissionRate: 0.05,
		},
		Geocoder: geocoder,
	})
	if err != nil {
		t.Fatalf("NewShippingEngine: %v", err)
	}
	handlers := NewShippingHandlers(engine)
	r := chi.NewRouter()
	r.Route("/shipping", handlers.Routes)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestShippingCalculate(t *testing.T) {
	router := newShippingRouter(t, nil)

	rr := postJSON(t, router, "/shipping/calculate", `{"weight": 30}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Success      bool                      `json:"success"`
		ShippingCost domain.ShippingCostResult `json:"shippingCost"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success")
	}
	if body.ShippingCost.TotalCost != 25 || body.ShippingCost.DistanceSurcharge != 0 {
		t.Fatalf("unexpected quote %+v", body.ShippingCost)
	}
}

func TestShippingCalculateWithLocation(t *testing.T) {
	router := newShippingRouter(t, nil)

	rr := postJSON(t, router, "/shipping/calculate",
		`{"weight": 1500, "location": {"latitude": 22.3149, "longitude": 87.3105}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		ShippingCost domain.ShippingCostResult `json:"shippingCost"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.ShippingCost.TotalCost != 210 {
		t.Fatalf("expected 210 at hub, got %d", body.ShippingCost.TotalCost)
	}
}

func TestShippingCalculateRejectsBadWeight(t *testing.T) {
	router := newShippingRouter(t, nil)

	for name, payload := range map[string]string{
		"missing weight":  `{"serviceType": "domestic"}`,
		"negative weight": `{"weight": -5}`,
		"zero weight":     `{"weight": 0}`,
		"empty body":      ``,
		"malformed json":  `{"weight":`,
	} {
		rr := postJSON(t, router, "/shipping/calculate", payload)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rr.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: body not JSON: %v", name, err)
		}
		if body["success"] != false {
			t.Fatalf("%s: expected success false, got %v", name, body)
		}
	}
}

func TestShippingTotalPrice(t *testing.T) {
	router := newShippingRouter(t, nil)

	rr := postJSON(t, router, "/shipping/total-price", `{"basePrice": 1000, "weight": 30}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		TotalPrice domain.PriceBreakdown `json:"totalPrice"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.TotalPrice.TotalPrice != 1075 || body.TotalPrice.Commission != 50 {
		t.Fatalf("unexpected price %+v", body.TotalPrice)
	}

	if rr := postJSON(t, router, "/shipping/total-price", `{"weight": 30}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without basePrice, got %d", rr.Code)
	}
}

func TestCustomerShippingRequiresCoordinates(t *testing.T) {
	router := newShippingRouter(t, nil)

	rr := postJSON(t, router, "/shipping/customer-shipping", `{"weight": 100}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without customerLocation, got %d", rr.Code)
	}

	rr = postJSON(t, router, "/shipping/customer-shipping",
		`{"weight": 100, "customerLocation": {"latitude": 28.6139, "longitude": 77.209}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		ShippingCost domain.ShippingCostResult `json:"shippingCost"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Delhi is over 1000km from the hub.
	if body.ShippingCost.DistanceSurcharge != 60 {
		t.Fatalf("expected surcharge 60, got %v", body.ShippingCost.DistanceSurcharge)
	}
}

func TestCustomerTotalPrice(t *testing.T) {
	router := newShippingRouter(t, nil)

	rr := postJSON(t, router, "/shipping/customer-total-price",
		`{"basePrice": 500, "weight": 100, "customerLocation": {"latitude": 22.3149, "longitude": 87.3105}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		TotalPrice domain.PriceBreakdown `json:"totalPrice"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// 100g tier base 60 + at-hub surcharge 10 = 70; commission 25.
	if body.TotalPrice.ShippingCost != 70 || body.TotalPrice.TotalPrice != 595 {
		t.Fatalf("unexpected price %+v", body.TotalPrice)
	}
}

func TestShippingRates(t *testing.T) {
	router := newShippingRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/shipping/rates", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Success bool              `json:"success"`
		Rates   services.RateCard `json:"rates"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Rates.Domestic) != 9 || body.Rates.CommissionRate != 0.05 {
		t.Fatalf("unexpected rate card %+v", body.Rates)
	}
}

func TestGeocodeEndpoint(t *testing.T) {
	geocoder := &handlerGeocoder{location: &domain.Location{Latitude: 22.57, Longitude: 88.36, City: "Kolkata"}}
	router := newShippingRouter(t, geocoder)

	rr := postJSON(t, router, "/shipping/geocode", `{"pincode": "700001"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Location domain.Location `json:"location"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Location.City != "Kolkata" {
		t.Fatalf("unexpected location %+v", body.Location)
	}
}

func TestGeocodeEndpointNotFound(t *testing.T) {
	router := newShippingRouter(t, &handlerGeocoder{})

	rr := postJSON(t, router, "/shipping/geocode", `{"pincode": "000000"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	if rr := postJSON(t, router, "/shipping/geocode", `{"pincode": "  "}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank pincode, got %d", rr.Code)
	}
}
