package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/taskhub/internal/api/middleware"
	"github.com/99minutos/taskhub/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Authenticate middleware.
// Its absence means the route was wired without authentication; treat the
// caller as unauthenticated.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity := middleware.Identity(c)
	if identity == nil {
		return nil, domain.ErrMissingAuthHeader
	}
	return identity, nil
}
