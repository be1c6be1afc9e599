package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/core/ports"
)

// RequireAdmin lets the request through only when the identity injected by
// Authenticate has the admin role. Must run after Authenticate.
func RequireAdmin(gateway ports.AuthGateway) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := Identity(c)
			if identity == nil {
				return domain.ErrMissingAuthHeader
			}
			if _, err := gateway.RequireAdmin(identity); err != nil {
				return err
			}
			return next(c)
		}
	}
}
