package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/satriajanaka/backend-mart/internal/common"
)

func TestWriteErrorUsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, common.NotFound("Product not found"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Product not found", body.Message)
}

func TestWriteErrorMasksUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal error", body.Message)
}

func TestParsePageNumber(t *testing.T) {
	cases := map[string]int{
		"":                 1,
		"?pageNumber=3":    3,
		"?pageNumber=0":    1,
		"?pageNumber=-2":   1,
		"?pageNumber=junk": 1,
	}
	for query, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/products"+query, nil)
		require.Equal(t, want, common.ParsePageNumber(req), "query %q", query)
	}
}

func TestPageCount(t *testing.T) {
	require.Equal(t, 3, common.PageCount(7, 3))
	require.Equal(t, 2, common.PageCount(6, 3))
	require.Equal(t, 0, common.PageCount(0, 3))
	require.Equal(t, 1, common.PageCount(1, 3))
}

func TestIdentityRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	identity := common.Identity{ID: "abc", Name: "John", Email: "john@example.com", Admin: true}
	ctx := common.WithIdentity(req.Context(), identity)

	got, ok := common.IdentityFrom(ctx)
	require.True(t, ok)
	require.Equal(t, identity, got)

	id, ok := common.UserID(ctx)
	require.True(t, ok)
	require.Equal(t, "abc", id)
}

func TestIdempotencyMiddlewareBlocksReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	idem := common.Idem{R: client, TTL: time.Minute}
	var hits int
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, do("order-1").Code)
	require.Equal(t, 1, hits)

	replay := do("order-1")
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Equal(t, 1, hits)

	var body common.ErrorBody
	require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &body))
	require.Equal(t, "duplicate request", body.Message)

	require.Equal(t, http.StatusCreated, do("order-2").Code)
	require.Equal(t, 2, hits)

	// Requests without a key are passed through untouched.
	require.Equal(t, http.StatusCreated, do("").Code)
	require.Equal(t, 3, hits)
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	require.Equal(t, "10.0.0.1", common.ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	require.Equal(t, "203.0.113.9", common.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9")
	require.Equal(t, "198.51.100.7", common.ClientIP(req))
}
