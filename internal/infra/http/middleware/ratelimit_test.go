package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 2, RequestsPerHour: 100, Enabled: true})

	for i := 0; i < 2; i++ {
		allowed, reason := rl.Allow("1.2.3.4")
		if !allowed {
			t.Fatalf("request %d: Allow() = false, %q, want true", i, reason)
		}
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1, RequestsPerHour: 100, Enabled: true})

	if allowed, _ := rl.Allow("1.2.3.4"); !allowed {
		t.Fatalf("first request should be allowed")
	}
	allowed, reason := rl.Allow("1.2.3.4")
	if allowed {
		t.Fatalf("second request should be blocked")
	}
	if reason == "" {
		t.Fatalf("expected a non-empty reason")
	}
}

func TestRateLimiterDisabledAlwaysAllows(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 0, RequestsPerHour: 0, Enabled: false})

	for i := 0; i < 5; i++ {
		if allowed, _ := rl.Allow("1.2.3.4"); !allowed {
			t.Fatalf("disabled limiter should always allow")
		}
	}
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1, RequestsPerHour: 100, Enabled: true})

	if allowed, _ := rl.Allow("1.1.1.1"); !allowed {
		t.Fatalf("client A first request should be allowed")
	}
	if allowed, _ := rl.Allow("2.2.2.2"); !allowed {
		t.Fatalf("client B should not be affected by client A's usage")
	}
}

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.2")

	if got := getClientIP(r); got != "203.0.113.5" {
		t.Fatalf("getClientIP() = %q, want 203.0.113.5", got)
	}
}

func TestGetClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.168.1.10:5555"

	if got := getClientIP(r); got != "192.168.1.10" {
		t.Fatalf("getClientIP() = %q, want 192.168.1.10", got)
	}
}
