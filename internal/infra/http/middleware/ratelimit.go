package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
	Enabled           bool
}

// DefaultRateLimitConfig returns a reasonable development default.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 120,
		RequestsPerHour:   3000,
		Enabled:           true,
	}
}

// RateLimitConfigFromEnv layers RATE_LIMIT_REQUESTS_PER_MINUTE,
// RATE_LIMIT_REQUESTS_PER_HOUR and RATE_LIMIT_ENABLED onto the default.
func RateLimitConfigFromEnv() RateLimitConfig {
	cfg := DefaultRateLimitConfig()

	if rpm := os.Getenv("RATE_LIMIT_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			cfg.RequestsPerMinute = val
		}
	}
	if rph := os.Getenv("RATE_LIMIT_REQUESTS_PER_HOUR"); rph != "" {
		if val, err := strconv.Atoi(rph); err == nil && val > 0 {
			cfg.RequestsPerHour = val
		}
	}
	if enabled := os.Getenv("RATE_LIMIT_ENABLED"); enabled != "" {
		cfg.Enabled = enabled != "false" && enabled != "0"
	}
	return cfg
}

// clientBucket tracks request counts for a single client IP.
type clientBucket struct {
	mu              sync.Mutex
	minuteCount     int
	hourCount       int
	minuteResetTime time.Time
	hourResetTime   time.Time
}

// RateLimiter is an in-memory, per-IP fixed-window rate limiter: each
// client's minute and hour counters reset when their window expires.
// Server.Handler applies it to every route.
type RateLimiter struct {
	config  RateLimitConfig
	mu      sync.RWMutex
	clients map[string]*clientBucket
}

// NewRateLimiter builds a rate limiter and starts its background cleanup.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		clients: make(map[string]*clientBucket),
	}
	go rl.cleanup()
	return rl
}

// NewRateLimiterFromEnv builds a rate limiter from environment variables.
func NewRateLimiterFromEnv() *RateLimiter {
	return NewRateLimiter(RateLimitConfigFromEnv())
}

// Allow reports whether a request from clientIP should proceed, along with
// a human-readable reason when it should not.
func (rl *RateLimiter) Allow(clientIP string) (bool, string) {
	if !rl.config.Enabled {
		return true, ""
	}

	now := time.Now()

	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		bucket = &clientBucket{
			minuteResetTime: now.Add(time.Minute),
			hourResetTime:   now.Add(time.Hour),
		}
		rl.mu.Lock()
		rl.clients[clientIP] = bucket
		rl.mu.Unlock()
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if now.After(bucket.minuteResetTime) {
		bucket.minuteCount = 0
		bucket.minuteResetTime = now.Add(time.Minute)
	}
	if now.After(bucket.hourResetTime) {
		bucket.hourCount = 0
		bucket.hourResetTime = now.Add(time.Hour)
	}

	if bucket.minuteCount >= rl.config.RequestsPerMinute {
		retryAfter := bucket.minuteResetTime.Sub(now).Round(time.Second)
		return false, fmt.Sprintf("rate limit exceeded: %d requests per minute, retry after %v", rl.config.RequestsPerMinute, retryAfter)
	}
	if bucket.hourCount >= rl.config.RequestsPerHour {
		retryAfter := bucket.hourResetTime.Sub(now).Round(time.Second)
		return false, fmt.Sprintf("rate limit exceeded: %d requests per hour, retry after %v", rl.config.RequestsPerHour, retryAfter)
	}

	bucket.minuteCount++
	bucket.hourCount++
	return true, ""
}

// cleanup periodically drops buckets that have gone fully idle.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for ip, bucket := range rl.clients {
			bucket.mu.Lock()
			idle := now.After(bucket.minuteResetTime) && now.After(bucket.hourResetTime) &&
				bucket.minuteCount == 0 && bucket.hourCount == 0
			bucket.mu.Unlock()
			if idle {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware enforces the configured limits per client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		allowed, reason := rl.Allow(clientIP)
		if !allowed {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.RequestsPerMinute))
			w.Header().Set("X-RateLimit-Remaining", "0")
			http.Error(w, reason, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client address, preferring proxy headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
