package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSimpleRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 5, 6, 10, 0, 0, 0, time.UTC)
	limiter := newSimpleRateLimiter(2, time.Minute, func() time.Time { return now })

	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("third request within the window should be rejected")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("other clients are limited independently")
	}

	now = now.Add(2 * time.Minute)
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("window expiry should reset the counter")
	}
}

func TestSimpleRateLimiterDisabled(t *testing.T) {
	if limiter := newSimpleRateLimiter(0, time.Minute, nil); limiter != nil {
		t.Fatal("zero limit should disable limiting")
	}
	if limiter := newSimpleRateLimiter(10, 0, nil); limiter != nil {
		t.Fatal("zero window should disable limiting")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Date(2025, 5, 6, 10, 0, 0, 0, time.UTC)
	limiter := newSimpleRateLimiter(1, time.Minute, func() time.Time { return now })

	handler := rateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipping/rates", nil)
	req.RemoteAddr = "203.0.113.9:41234"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"success":false`) {
		t.Fatalf("expected failure envelope, got %s", rr.Body.String())
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/shipping/rates", nil)
	other.RemoteAddr = "198.51.100.4:9000"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", rr.Code)
	}
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	handler := RateLimitByClientIP(0, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	}
}
