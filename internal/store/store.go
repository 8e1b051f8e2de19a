// Package store holds the PostgreSQL persistence layer. Queries are written
// by hand against pgx; feature packages consume narrow interfaces over the
// methods they need so tests can substitute fakes.
package store

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles every query against the storefront schema.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store on top of the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool exposes the underlying pool for health probes and migrations.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// ToUUID parses a string identifier into a pgtype.UUID.
func ToUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

// UUIDString renders a pgtype.UUID as its canonical string form.
func UUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// UUIDEqual reports whether two UUIDs hold the same value.
func UUIDEqual(a, b pgtype.UUID) bool {
	return a.Valid && b.Valid && a.Bytes == b.Bytes
}

// NewUUID generates a fresh random identifier.
func NewUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}
