package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/pkg/requestid"
)

type stubGateway struct {
	identity  *domain.Identity
	err       error
	gotHeader string
	gotReqID  string
}

func (g *stubGateway) Authenticate(ctx context.Context, authorization string) (*domain.Identity, error) {
	g.gotHeader = authorization
	g.gotReqID = requestid.FromContext(ctx)
	return g.identity, g.err
}

func (g *stubGateway) RequireAdmin(identity *domain.Identity) (*domain.Identity, error) {
	if !identity.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	return identity, nil
}

func TestAuthenticate_InjectsIdentity(t *testing.T) {
	e := echo.New()
	gw := &stubGateway{identity: &domain.Identity{UserID: 4, Role: domain.RoleUser, Email: "a@example.com"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set(echo.HeaderXRequestID, "rid-9")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Authenticate(gw)(func(c echo.Context) error {
		called = true
		if id := Identity(c); id == nil || id.UserID != 4 {
			t.Fatalf("identity not set: %+v", id)
		}
		if got := requestid.FromContext(c.Request().Context()); got != "rid-9" {
			t.Fatalf("request id not on context: %q", got)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if gw.gotHeader != "Bearer abc" || gw.gotReqID != "rid-9" {
		t.Fatalf("gateway got header %q and request id %q", gw.gotHeader, gw.gotReqID)
	}
}

func TestAuthenticate_PropagatesGatewayError(t *testing.T) {
	for _, want := range []error{domain.ErrMissingAuthHeader, domain.ErrInvalidToken, domain.ErrAuthUnavailable} {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		handler := Authenticate(&stubGateway{err: want})(func(c echo.Context) error {
			t.Fatalf("next must not be called on %v", want)
			return nil
		})
		if err := handler(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}
