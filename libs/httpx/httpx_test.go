package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	h := rl.Middleware()(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		require.Equal(t, want, rw.Code, "request %d", i)
	}

	other := httptest.NewRequest(http.MethodPost, "/appointments", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, other)
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	require.True(t, rl.allow("a"))
	require.False(t, rl.allow("a"))
	now = now.Add(2 * time.Minute)
	assert.True(t, rl.allow("a"))
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rl := NewRedisRateLimiter(rdb, 1, time.Minute, "test")
	h := rl.Middleware(discardLogger(), false)(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/appointments/vapi", nil)
	req.Header.Set("X-Forwarded-For", "192.0.2.10")
	h.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestRedisRateLimiterFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	rl := NewRedisRateLimiter(rdb, 1, time.Minute, "test")

	rw := httptest.NewRecorder()
	rl.Middleware(discardLogger(), true)(okHandler()).ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rw.Code)

	rw = httptest.NewRecorder()
	rl.Middleware(discardLogger(), false)(okHandler()).ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rw.Code)
}

func TestWithCORS(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://calendar.example.com"},
		AllowedMethods: []string{"GET", "PUT", "DELETE"},
		MaxAge:         time.Hour,
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/appointments", nil)
	req.Header.Set("Origin", "https://calendar.example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusNoContent, rw.Code)
	assert.Equal(t, "https://calendar.example.com", rw.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, PUT, DELETE", rw.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", rw.Header().Get("Access-Control-Max-Age"))

	foreign := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	foreign.Header.Set("Origin", "https://evil.example.com")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, foreign)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Empty(t, rw.Header().Get("Access-Control-Allow-Origin"))
}

func TestWithRecovery(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), WithRequestID, WithRecovery(discardLogger()))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rw.Code)
	assert.JSONEq(t, `{"error":"unknown_error","message":"unexpected server error"}`, rw.Body.String())
	assert.NotEmpty(t, rw.Header().Get(RequestIDHeader))
}

func TestRequireSharedSecret(t *testing.T) {
	h := RequireSharedSecret("X-Webhook-Secret", "s3cret")(okHandler())

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Webhook-Secret", "s3cret")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)

	open := RequireSharedSecret("X-Webhook-Secret", "")(okHandler())
	rw = httptest.NewRecorder()
	open.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestWithTimeoutWritesJSON(t *testing.T) {
	slow := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	h := WithTimeout(10 * time.Millisecond)(slow)

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/appointments", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rw.Code)
	assert.Equal(t, "application/json", rw.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"timeout","message":"request timed out"}`, rw.Body.String())

	fast := WithTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}))
	rw = httptest.NewRecorder()
	fast.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/appointments/calendar.ics", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rw.Header().Get("Content-Type"))
}
