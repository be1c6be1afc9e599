// Package token issues and decodes the signed, expiring bearer tokens handed
// out by the Authentication Service.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/taskhub/internal/core/domain"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "HS256"

// Claims is the decoded content of a valid token.
type Claims struct {
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

// jwtClaims uses pointers so that absent claims can be told apart from zero values.
type jwtClaims struct {
	UserID *int64  `json:"user_id,omitempty"`
	Role   *string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single shared secret and algorithm.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec returns a Codec for one of the HMAC algorithms (HS256, HS384, HS512).
func NewCodec(secret, algorithm string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: empty secret")
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token: unsupported algorithm %q", algorithm)
	}

	c := &Codec{secret: []byte(secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Algorithm returns the configured algorithm identifier.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue returns a token for userID and role that expires ttl from now.
func (c *Codec) Issue(userID int64, role string, ttl time.Duration) (string, error) {
	claims := jwtClaims{
		UserID: &userID,
		Role:   &role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns its claims. It fails with
// domain.ErrInvalidToken for a bad signature, wrong algorithm, malformed
// input or an expired token, and with domain.ErrInvalidClaims when user_id
// or role is missing.
func (c *Codec) Decode(raw string) (*Claims, error) {
	var claims jwtClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.UserID == nil || claims.Role == nil {
		return nil, domain.ErrInvalidClaims
	}

	return &Claims{
		UserID:    *claims.UserID,
		Role:      *claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
