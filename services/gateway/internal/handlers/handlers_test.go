package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/provence-bookings/services/gateway/internal/proxy"
)

type seen struct {
	path   string
	body   string
	header http.Header
}

func upstream(t *testing.T, name string, got *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*got = seen{path: r.URL.RequestURI(), body: string(body), header: r.Header.Clone()}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", name)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"from":"`+name+`"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func gateway(bookingsURL, paymentsURL string) http.Handler {
	h := New(proxy.NewServiceProxy("bookings", bookingsURL), proxy.NewServiceProxy("payments", paymentsURL))
	return h.Router([]string{"https://provence.example"}, nil)
}

func TestRouter_RoutesByPath(t *testing.T) {
	var b, p seen
	gw := gateway(upstream(t, "bookings", &b).URL, upstream(t, "payments", &p).URL)

	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/availability", "bookings"},
		{http.MethodPost, "/api/booking", "bookings"},
		{http.MethodGet, "/api/experiences/cheese-wine/schedule", "bookings"},
		{http.MethodGet, "/api/stripe-config", "payments"},
		{http.MethodPost, "/api/create-payment-intent", "payments"},
		{http.MethodPost, "/api/stripe/webhook", "payments"},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		gw.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusCreated, rr.Code, tt.path)
		assert.Equal(t, tt.want, rr.Header().Get("X-Upstream"), tt.path)
	}
}

func TestForward_PreservesRequest(t *testing.T) {
	var b, p seen
	gw := gateway(upstream(t, "bookings", &b).URL, upstream(t, "payments", &p).URL)

	req := httptest.NewRequest(http.MethodPost, "/api/booking?source=web", strings.NewReader(`{"experience_id":"cheese-wine"}`))
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("Idempotency-Key", "abc")
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set("Connection", "keep-alive")
	rr := httptest.NewRecorder()
	gw.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"from":"bookings"}`, rr.Body.String())
	assert.Equal(t, "/api/booking?source=web", b.path)
	assert.Equal(t, `{"experience_id":"cheese-wine"}`, b.body)
	assert.Equal(t, "abc", b.header.Get("Idempotency-Key"))
	assert.Equal(t, "req-1", b.header.Get("X-Request-ID"))
	assert.Equal(t, "203.0.113.9", b.header.Get("X-Forwarded-For"))
	assert.Equal(t, "true", b.header.Get("X-Gateway-Forwarded"))
}

func TestForward_WebhookSignatureReachesPayments(t *testing.T) {
	var b, p seen
	gw := gateway(upstream(t, "bookings", &b).URL, upstream(t, "payments", &p).URL)

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	gw.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "t=1,v1=abc", p.header.Get("Stripe-Signature"))
	assert.Equal(t, `{"id":"evt_1"}`, p.body)
}

func TestForward_UpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	rr := httptest.NewRecorder()
	gateway(url, url).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/availability", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestRouter_CORSPreflight(t *testing.T) {
	var b, p seen
	gw := gateway(upstream(t, "bookings", &b).URL, upstream(t, "payments", &p).URL)

	req := httptest.NewRequest(http.MethodOptions, "/api/booking", nil)
	req.Header.Set("Origin", "https://provence.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Idempotency-Key")
	rr := httptest.NewRecorder()
	gw.ServeHTTP(rr, req)

	assert.Equal(t, "https://provence.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, b.path, "preflight is answered by the gateway")

	req = httptest.NewRequest(http.MethodOptions, "/api/booking", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	gw.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Health(t *testing.T) {
	rr := httptest.NewRecorder()
	gateway("http://127.0.0.1:1", "http://127.0.0.1:1").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
