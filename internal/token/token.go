// Package token issues and verifies compact signed session tokens.
//
// Tokens are stateless HS256 JWTs carrying sub/iat/exp/iss claims. There is
// no server-side revocation; a token dies only by expiry.
package token

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Verification failure modes. Each is a distinct outcome so the boundary can
// map them to distinct transport statuses.
var (
	// ErrEmpty indicates an empty or missing token string.
	ErrEmpty = errors.New("token empty")

	// ErrUnsupported indicates a recognized token with an unsupported
	// algorithm or an authorization scheme other than Bearer.
	ErrUnsupported = errors.New("token format unsupported")

	// ErrMalformed indicates the token is not three well-formed segments.
	ErrMalformed = errors.New("token malformed")

	// ErrBadSignature indicates the signature does not verify under the
	// service key.
	ErrBadSignature = errors.New("token signature invalid")

	// ErrExpired indicates the expiry claim is not in the future.
	ErrExpired = errors.New("token expired")
)

// Service issues and verifies tokens under a single symmetric key.
// The key is injected configuration, never compiled in.
type Service struct {
	signKey []byte
	ttl     time.Duration
	issuer  string
	now     func() time.Time
}

// NewService constructs a token service. ttl bounds the validity window of
// every issued token.
func NewService(signKey []byte, ttl time.Duration, issuer string) *Service {
	return &Service{signKey: signKey, ttl: ttl, issuer: issuer, now: time.Now}
}

// WithClock overrides the time source. Test use only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue creates a signed HS256 token asserting the given account as subject.
// Returns the compact serialization and the expiry instant.
func (s *Service) Issue(subject uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		Issuer:    s.issuer,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// Verify checks structure, signature and expiry, and returns the claims on
// success. Expiry is strict: a token is valid only while now < exp, with no
// leeway.
func (s *Service) Verify(raw string) (*jwt.RegisteredClaims, error) {
	if raw == "" {
		return nil, ErrEmpty
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrUnsupported
		}
		return s.signKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	switch {
	case err == nil && parsed.Valid:
		return &claims, nil
	case errors.Is(err, ErrUnsupported) || errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrUnsupported
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	default:
		return nil, ErrMalformed
	}
}

// Subject parses the subject claim into an account ID.
func Subject(claims *jwt.RegisteredClaims) (uuid.UUID, error) {
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrMalformed
	}
	return id, nil
}
