package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/taskhub/internal/core/domain"
)

func TestRequireAdmin_Allows(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.Set(IdentityKey, &domain.Identity{UserID: 1, Role: domain.RoleAdmin})

	handler := RequireAdmin(&stubGateway{})(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRequireAdmin_Denies(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.Set(IdentityKey, &domain.Identity{UserID: 2, Role: domain.RoleUser})

	handler := RequireAdmin(&stubGateway{})(func(c echo.Context) error {
		t.Fatalf("next must not be called")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
}

func TestRequireAdmin_WithoutIdentity(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())

	handler := RequireAdmin(&stubGateway{})(func(c echo.Context) error { return nil })
	if err := handler(c); !domain.IsUnauthorized(err) {
		t.Fatalf("expected an unauthorized error, got %v", err)
	}
}
