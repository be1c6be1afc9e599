package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/core/ports"
	"github.com/99minutos/taskhub/pkg/requestid"
)

// IdentityKey is the echo.Context key holding the caller's *domain.Identity.
const IdentityKey = "identity"

// Authenticate resolves the Authorization header through the gateway and
// injects the resulting identity into the context. The request id is carried
// on the request context so the gateway can forward it.
func Authenticate(gateway ports.AuthGateway) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			ctx := requestid.NewContext(req.Context(), id)

			identity, err := gateway.Authenticate(ctx, req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}

			c.SetRequest(req.WithContext(ctx))
			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

// Identity returns the identity injected by Authenticate, or nil.
func Identity(c echo.Context) *domain.Identity {
	identity, _ := c.Get(IdentityKey).(*domain.Identity)
	return identity
}
