package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/provence-bookings/pkg/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRequestID(t *testing.T) {
	var seen any
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(logger.RequestIDKey)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != "abc" || rr.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("incoming request id not propagated: ctx=%v header=%q", seen, rr.Header().Get("X-Request-ID"))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}

func TestHealth(t *testing.T) {
	h := Health(nil)(okHandler)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	h = Health(map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("down") },
	})(okHandler)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status field = %v", body["status"])
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("non-health paths pass through, got %d", rr.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(client, RateLimitConfig{Requests: 1, Window: time.Minute})
	h := rl.Middleware()(okHandler)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/booking", nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want pass-through", i, rr.Code)
		}
	}
}

func TestRateLimiter_SkipAndWindowKey(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Requests: 1, Window: time.Millisecond, SkipFunc: SkipSafeMethods})
	if rl.config.Window != time.Second {
		t.Errorf("window should be clamped to 1s, got %v", rl.config.Window)
	}

	// GET never reaches the nil client.
	rr := httptest.NewRecorder()
	rl.Middleware()(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/availability", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d", rr.Code)
	}

	now := time.Unix(1_700_000_000, 0)
	a := rl.windowKey("ip:1.2.3.4", now)
	if a != rl.windowKey("ip:1.2.3.4", now) {
		t.Error("window key must be stable")
	}
	if a == rl.windowKey("ip:1.2.3.5", now) || a == rl.windowKey("ip:1.2.3.4", now.Add(time.Second)) {
		t.Error("window key must vary by key and window")
	}
	if !strings.HasPrefix(a, "ratelimit:") {
		t.Errorf("key = %q", a)
	}
}
