package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/taskhub/internal/core/domain"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec("secret", "HS256", WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestCodec_IssueDecode_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	raw, err := c.Issue(42, domain.RoleAdmin, 30*time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.UserID != 42 || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(clock.t.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestCodec_Issue_Deterministic(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	a, _ := c.Issue(1, domain.RoleUser, time.Minute)
	b, _ := c.Issue(1, domain.RoleUser, time.Minute)
	if a != b {
		t.Fatalf("expected identical tokens for identical inputs and clock")
	}

	clock.t = clock.t.Add(time.Second)
	d, _ := c.Issue(1, domain.RoleUser, time.Minute)
	if d == a {
		t.Fatalf("expected expiry to change the token")
	}
}

func TestCodec_Decode_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clock)

	raw, _ := c.Issue(7, domain.RoleUser, time.Minute)

	clock.t = clock.t.Add(time.Minute)
	if _, err := c.Decode(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken at expiry, got %v", err)
	}
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clock)
	other, _ := NewCodec("other-secret", "HS256", WithClock(clock.Now))

	raw, _ := other.Issue(7, domain.RoleUser, time.Minute)
	if _, err := c.Decode(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_Decode_WrongAlgorithm(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clock)
	hs512, _ := NewCodec("secret", "HS512", WithClock(clock.Now))

	raw, _ := hs512.Issue(7, domain.RoleUser, time.Minute)
	if _, err := c.Decode(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for algorithm mismatch, got %v", err)
	}
}

func TestCodec_Decode_Malformed(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := c.Decode(raw); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("Decode(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestCodec_Decode_MissingClaims(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clock)

	exp := clock.t.Add(time.Minute).Unix()
	cases := map[string]jwt.MapClaims{
		"no user_id": {"role": "user", "exp": exp},
		"no role":    {"user_id": 3, "exp": exp},
	}
	for name, claims := range cases {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("%s: sign: %v", name, err)
		}
		if _, err := c.Decode(raw); !errors.Is(err, domain.ErrInvalidClaims) {
			t.Fatalf("%s: expected ErrInvalidClaims, got %v", name, err)
		}
	}
}

func TestCodec_Decode_MissingExpiry(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})

	raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 3, "role": "user"}).
		SignedString([]byte("secret"))
	if _, err := c.Decode(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without exp, got %v", err)
	}
}

func TestNewCodec_RejectsUnsupportedAlgorithm(t *testing.T) {
	if _, err := NewCodec("secret", "RS256"); err == nil {
		t.Fatalf("expected error for RS256")
	}
	if _, err := NewCodec("secret", "none"); err == nil {
		t.Fatalf("expected error for none")
	}
	if _, err := NewCodec("", "HS256"); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
