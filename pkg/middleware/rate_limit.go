package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/provence-bookings/internal/http/response"
	"github.com/diagnosis/provence-bookings/pkg/logger"
)

type RateLimitConfig struct {
	Requests int           // Max requests per window
	Window   time.Duration // Fixed window length, at least one second
	Prefix   string
	KeyFunc  func(r *http.Request) []string
	SkipFunc func(r *http.Request) bool
}

// RateLimiter counts requests per key in Redis using fixed windows.
// Redis errors let the request through.
type RateLimiter struct {
	client redis.Cmdable
	config RateLimitConfig
}

func NewRateLimiter(client redis.Cmdable, config RateLimitConfig) *RateLimiter {
	if config.Window < time.Second {
		config.Window = time.Second
	}
	if config.KeyFunc == nil {
		config.KeyFunc = ClientIPKeyFunc
	}
	if config.Prefix == "" {
		config.Prefix = "ratelimit"
	}
	return &RateLimiter{client: client, config: config}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				if !rl.Allow(r.Context(), key) {
					w.Header().Set("Retry-After", strconv.Itoa(int(rl.config.Window.Seconds())))
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Allow increments the counter for key and reports whether it is still within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	k := rl.windowKey(key, time.Now())

	pipe := rl.client.TxPipeline()
	count := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.WarnContext(ctx, "Rate limiter unavailable, allowing request", "error", err)
		return true
	}

	return count.Val() <= int64(rl.config.Requests)
}

func (rl *RateLimiter) windowKey(key string, now time.Time) string {
	sum := sha256.Sum256([]byte(key))
	window := now.Unix() / int64(rl.config.Window/time.Second)
	return fmt.Sprintf("%s:%x:%d", rl.config.Prefix, sum[:8], window)
}

// SkipSafeMethods limits only state-changing requests.
func SkipSafeMethods(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions
}

func ClientIPKeyFunc(r *http.Request) []string {
	if ip := ClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
