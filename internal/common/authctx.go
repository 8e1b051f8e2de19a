package common

import "context"

type ctxKey string

const identityKey ctxKey = "auth/identity"

// Identity captures the authenticated caller attached to a request context.
type Identity struct {
	ID    string
	Name  string
	Email string
	Admin bool
}

// WithIdentity stores the authenticated caller on the provided context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated caller from the context if present.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	if !ok || id.ID == "" {
		return "", false
	}
	return id.ID, true
}
