package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/satriajanaka/backend-mart/internal/ratelimit"
)

func TestMiddlewareLimitsPerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := ratelimit.New(client, "3-M")
	require.NoError(t, err)

	handler := ratelimit.Middleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, do("10.1.1.1"))
	}
	require.Equal(t, http.StatusTooManyRequests, do("10.1.1.1"))

	// A different client is unaffected.
	require.Equal(t, http.StatusOK, do("10.1.1.2"))
}

func TestMiddlewareRejectsBadRate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := ratelimit.New(client, "not-a-rate")
	require.Error(t, err)
}

func TestMiddlewareWithNilLimiterPassesThrough(t *testing.T) {
	handler := ratelimit.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
