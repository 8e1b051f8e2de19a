package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem is an Idempotency-Key middleware backed by Redis. Order creation is
// mounted behind it: a replay of the same key within the TTL must not create
// a second order. Keys are scoped per method and route so the same client
// key can be reused across unrelated endpoints.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func (i Idem) storageKey(r *http.Request, key string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + "\n" + key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints. Requests
// without an Idempotency-Key header pass through untouched.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := r.Header.Get("Idempotency-Key")
		if clientKey == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := i.storageKey(r, clientKey)
		acquired, err := i.R.SetNX(r.Context(), key, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "idempotency store error")
			return
		}
		if !acquired {
			JSONError(w, http.StatusConflict, "duplicate request")
			return
		}
		defer func() {
			// ensure the key expires even if the handler panics
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
