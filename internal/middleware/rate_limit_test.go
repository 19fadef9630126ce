package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIPRateLimiterReturnsRateLimitedBody(t *testing.T) {
	limiter := NewIPRateLimiterWithMaxEntries(1, time.Minute, 32)
	handler := limiter.Middleware("Too many requests")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodPost, "/api/transactions/import", nil)
	req1.RemoteAddr = "127.0.0.1:12345"
	handler.ServeHTTP(first, req1)
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request status 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/api/transactions/import", nil)
	req2.RemoteAddr = "127.0.0.1:54321"
	handler.ServeHTTP(second, req2)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request status 429, got %d", second.Code)
	}
	body := second.Body.String()
	if !strings.Contains(body, `"code":"RATE_LIMITED"`) || !strings.Contains(body, `"error":"Too many requests"`) {
		t.Fatalf("expected RATE_LIMITED error in response body, got %s", body)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("unexpected Retry-After %q", second.Header().Get("Retry-After"))
	}
}

func TestIPRateLimiterWindowResets(t *testing.T) {
	rl := newIPRateLimiter(1, time.Minute, 8)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("10.0.0.1") || rl.allow("10.0.0.1") {
		t.Fatal("expected first attempt allowed and second blocked")
	}
	now = now.Add(2 * time.Minute)
	if !rl.allow("10.0.0.1") {
		t.Fatal("expected new window to allow the request")
	}
}

func TestIPRateLimiterBoundsTrackedAddresses(t *testing.T) {
	rl := newIPRateLimiter(5, time.Minute, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	now = now.Add(time.Second)
	rl.allow("10.0.0.2")
	now = now.Add(time.Second)
	rl.allow("10.0.0.3")

	if len(rl.attempts) != 2 {
		t.Fatalf("expected 2 tracked addresses, got %d", len(rl.attempts))
	}
	if _, ok := rl.attempts["10.0.0.1"]; ok {
		t.Fatal("expected the oldest window to be evicted")
	}
}
