package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupParsesTopResult(t *testing.T) {
	var gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expected format=json, got %q", r.URL.Query().Get("format"))
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("expected limit=1, got %q", r.URL.Query().Get("limit"))
		}
		if r.URL.Query().Get("addressdetails") != "1" {
			t.Errorf("expected addressdetails=1, got %q", r.URL.Query().Get("addressdetails"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"22.3302","lon":"87.3237","display_name":"Kharagpur, West Bengal, India","address":{"city":"Kharagpur","state":"West Bengal","country":"India","postcode":"721301"}}]`))
	}))
	defer server.Close()

	client := NewNominatimClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	location, err := client.Lookup(context.Background(), "721301")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if location == nil {
		t.Fatal("expected location")
	}
	if gotQuery != "721301 India" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if gotAgent != "IndiCrafts-Server/1.0" {
		t.Errorf("unexpected user agent %q", gotAgent)
	}
	if location.Latitude != 22.3302 || location.Longitude != 87.3237 {
		t.Errorf("unexpected coordinates: %v, %v", location.Latitude, location.Longitude)
	}
	if location.City != "Kharagpur" || location.State != "West Bengal" {
		t.Errorf("unexpected address fields: %+v", location)
	}
	if location.PostalCode != "721301" {
		t.Errorf("unexpected postal code %q", location.PostalCode)
	}
}

func TestLookupCityFallsBackToTownThenVillage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"town", `[{"lat":"10","lon":"20","address":{"town":"Bolpur"}}]`, "Bolpur"},
		{"village", `[{"lat":"10","lon":"20","address":{"village":"Raghurajpur"}}]`, "Raghurajpur"},
		{"none", `[{"lat":"10","lon":"20","address":{}}]`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewNominatimClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
			location, err := client.Lookup(context.Background(), "700001")
			if err != nil {
				t.Fatalf("Lookup returned error: %v", err)
			}
			if location == nil {
				t.Fatal("expected location")
			}
			if location.City != tc.want {
				t.Errorf("expected city %q, got %q", tc.want, location.City)
			}
		})
	}
}

func TestLookupDefaultsCountryAndPostcode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"10","lon":"20","address":{"city":"Puri"}}]`))
	}))
	defer server.Close()

	client := NewNominatimClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	location, err := client.Lookup(context.Background(), "752001")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if location.Country != "India" {
		t.Errorf("expected default country India, got %q", location.Country)
	}
	if location.PostalCode != "752001" {
		t.Errorf("expected query postcode fallback, got %q", location.PostalCode)
	}
}

func TestLookupNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewNominatimClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	location, err := client.Lookup(context.Background(), "000000")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if location != nil {
		t.Fatalf("expected nil location, got %+v", location)
	}
}

func TestLookupEmptyCode(t *testing.T) {
	client := NewNominatimClient()
	location, err := client.Lookup(context.Background(), "   ")
	if err != nil || location != nil {
		t.Fatalf("expected nil result for empty code, got %+v, %v", location, err)
	}
}

func TestLookupUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewNominatimClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if _, err := client.Lookup(context.Background(), "700001"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestLookupMalformedCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"not-a-number","lon":"20"}]`))
	}))
	defer server.Close()

	client := NewNominatimClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if _, err := client.Lookup(context.Background(), "700001"); err == nil {
		t.Fatal("expected error for malformed coordinates")
	}
}
