package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/indicrafts/api/internal/domain"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent = "IndiCrafts-Server/1.0"
	defaultCountry   = "India"
	defaultTimeout   = 5 * time.Second

	maxResponseBytes = 1 << 20
)

// HTTPDoer abstracts the HTTP client used to call the geocoding upstream.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NominatimClient looks up postal codes against the OpenStreetMap Nominatim API.
type NominatimClient struct {
	httpClient  HTTPDoer
	baseURL     string
	userAgent   string
	countryHint string
}

// ClientOption customises NominatimClient construction.
type ClientOption func(*NominatimClient)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(client HTTPDoer) ClientOption {
	return func(c *NominatimClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the upstream search endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *NominatimClient) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each lookup.
func WithUserAgent(agent string) ClientOption {
	return func(c *NominatimClient) {
		if trimmed := strings.TrimSpace(agent); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// WithCountryHint appends the country to lookup queries and fills missing
// country fields on results.
func WithCountryHint(country string) ClientOption {
	return func(c *NominatimClient) {
		if trimmed := strings.TrimSpace(country); trimmed != "" {
			c.countryHint = trimmed
		}
	}
}

// WithTimeout replaces the default request timeout. Ignored when a custom
// HTTP client was injected.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *NominatimClient) {
		if timeout <= 0 {
			return
		}
		if client, ok := c.httpClient.(*http.Client); ok {
			client.Timeout = timeout
		}
	}
}

// NewNominatimClient constructs a client with sane defaults for the public
// Nominatim service.
func NewNominatimClient(opts ...ClientOption) *NominatimClient {
	c := &NominatimClient{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		countryHint: defaultCountry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type nominatimResult struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	City     string `json:"city"`
	Town     string `json:"town"`
	Village  string `json:"village"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Postcode string `json:"postcode"`
}

// Lookup queries the upstream for the postal code and returns the top match.
// A successful request with no usable match returns (nil, nil).
func (c *NominatimClient) Lookup(ctx context.Context, postalCode string) (*domain.Location, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, nil
	}

	query := postalCode
	if c.countryHint != "" {
		query = postalCode + " " + c.countryHint
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoding: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding: lookup %q: %w", postalCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding: upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("geocoding: read response: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("geocoding: decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	return c.toLocation(results[0], postalCode)
}

func (c *NominatimClient) toLocation(result nominatimResult, postalCode string) (*domain.Location, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(result.Lat), 64)
	if err != nil {
		return nil, errors.New("geocoding: result missing latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(result.Lon), 64)
	if err != nil {
		return nil, errors.New("geocoding: result missing longitude")
	}

	city := firstNonEmpty(result.Address.City, result.Address.Town, result.Address.Village)
	country := strings.TrimSpace(result.Address.Country)
	if country == "" {
		country = c.countryHint
	}
	postcode := strings.TrimSpace(result.Address.Postcode)
	if postcode == "" {
		postcode = postalCode
	}

	return &domain.Location{
		Latitude:   lat,
		Longitude:  lon,
		Address:    strings.TrimSpace(result.DisplayName),
		City:       city,
		State:      strings.TrimSpace(result.Address.State),
		Country:    country,
		PostalCode: postcode,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
