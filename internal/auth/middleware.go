package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/satriajanaka/backend-mart/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// IdentitySource resolves a token subject into the caller's identity.
type IdentitySource interface {
	IdentityByID(ctx context.Context, id string) (common.Identity, error)
}

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Service    *Service
	Users      IdentitySource
	CookieName string
}

// RequireAuth enforces that a valid token is present before executing the
// next handler.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin enforces an authenticated admin caller. It is mounted inside
// RequireAuth so the identity is already on the context.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := common.IdentityFrom(r.Context())
		if !ok {
			common.JSONError(w, http.StatusUnauthorized, "not authorized, no token")
			return
		}
		if !ident.Admin {
			common.JSONError(w, http.StatusForbidden, "not authorized as admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) authenticateRequest(r *http.Request) (context.Context, error) {
	if m.Service == nil || m.Users == nil {
		return r.Context(), errors.New("auth: middleware not configured")
	}
	token := m.extractToken(r)
	if token == "" {
		return r.Context(), errNoToken
	}
	userID, err := m.Service.ParseToken(token)
	if err != nil {
		return r.Context(), err
	}
	ident, err := m.Users.IdentityByID(r.Context(), userID)
	if err != nil {
		return r.Context(), err
	}
	return common.WithIdentity(r.Context(), ident), nil
}

func (m Middleware) extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if m.CookieName != "" {
		if cookie, err := r.Cookie(m.CookieName); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
	}
	return ""
}
