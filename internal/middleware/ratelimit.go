package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"shopapi/internal/handlers/respond"
)

// LimitConfig is one named fixed-window rate limit.
type LimitConfig struct {
	Name   string
	Max    int64
	Window time.Duration
}

// Route limits, matching the API's published quotas.
var (
	LimitAPI     = LimitConfig{Name: "api", Max: 1000, Window: 15 * time.Minute}
	LimitOTP     = LimitConfig{Name: "otp", Max: 5, Window: 15 * time.Minute}
	LimitLogin   = LimitConfig{Name: "login", Max: 10, Window: 15 * time.Minute}
	LimitSignup  = LimitConfig{Name: "signup", Max: 3, Window: time.Hour}
	LimitTokens  = LimitConfig{Name: "refresh", Max: 30, Window: 15 * time.Minute}
	LimitProfile = LimitConfig{Name: "profile", Max: 20, Window: 15 * time.Minute}
)

// RateLimiter enforces fixed-window per-client limits backed by Redis, so
// the counters survive restarts and are shared across replicas. A Redis
// outage fails open; throttling is protection, not a correctness gate.
type RateLimiter struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRateLimiter creates a RateLimiter on the given Redis client.
func NewRateLimiter(rdb *redis.Client, log *slog.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, log: log}
}

// Limit wraps a handler with the given limit, keyed by client IP.
func (l *RateLimiter) Limit(cfg LimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("rl:%s:%s", cfg.Name, clientIP(r))

			count, err := l.rdb.Incr(r.Context(), key).Result()
			if err != nil {
				l.log.Warn("rate limiter unavailable", "limit", cfg.Name, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := l.rdb.Expire(r.Context(), key, cfg.Window).Err(); err != nil {
					l.log.Warn("rate limiter expire failed", "limit", cfg.Name, "error", err)
				}
			}

			remaining := cfg.Max - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(cfg.Max, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > cfg.Max {
				respond.Error(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers X-Forwarded-For so limits key on the real client when
// the service sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
