package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const defaultAccessTTL = 30 * 24 * time.Hour

// Service issues and validates access tokens and hashes passwords.
type Service struct {
	secret    []byte
	ttl       time.Duration
	issuer    string
	audience  string
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	now       func() time.Time
}

// Config configures the auth service.
type Config struct {
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-mart"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "mart-frontend"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   issuer,
		audience: audience,
		signer:   jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		now: time.Now,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// IssueToken signs an access token for the given user id.
func (s *Service) IssueToken(userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("auth: user id is required")
	}
	now := s.now()
	expiry := now.Add(s.ttl)
	tok, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		Subject(userID).
		IssuedAt(now).
		Expiration(expiry).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), expiry, nil
}

// ParseToken verifies a signed token and returns the subject user id.
func (s *Service) ParseToken(raw string) (string, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(s.signer, s.secret),
		jwt.WithValidate(false),
	)
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}
	if err := s.validator.Validate(tok, s.signer, s.now()); err != nil {
		return "", err
	}
	subject := strings.TrimSpace(tok.Subject())
	if subject == "" {
		return "", errors.New("auth: token missing subject")
	}
	return subject, nil
}

// HashPassword derives an argon2id hash for storage.
func (s *Service) HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: password is required")
	}
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// VerifyPassword reports whether the password matches the stored hash.
func (s *Service) VerifyPassword(password, hash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	return err == nil && ok
}
