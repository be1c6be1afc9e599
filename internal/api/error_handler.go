package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/taskhub/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// domainErrors maps sentinels to status and client-facing text.
var domainErrors = []struct {
	err  error
	code int
	msg  string
}{
	{domain.ErrEmailTaken, http.StatusBadRequest, "Email already registered"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	{domain.ErrInvalidClaims, http.StatusUnauthorized, "Invalid token payload"},
	{domain.ErrUserNotFound, http.StatusUnauthorized, "User not found"},
	{domain.ErrMissingAuthHeader, http.StatusUnauthorized, "Authorization header missing"},
	{domain.ErrMalformedAuthHeader, http.StatusUnauthorized, "Invalid authorization header format"},
	{domain.ErrInvalidAuthScheme, http.StatusUnauthorized, "Invalid authentication scheme"},
	{domain.ErrAdminRequired, http.StatusForbidden, "Admin access required"},
	{domain.ErrNotTaskOwner, http.StatusForbidden, "You can only update your own tasks"},
	{domain.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
	{domain.ErrInvalidStatus, http.StatusUnprocessableEntity, "Status must be one of: pending, in_progress, completed"},
	{domain.ErrTitleRequired, http.StatusUnprocessableEntity, "Title is required"},
	{domain.ErrRequestInFlight, http.StatusConflict, "A request with this Idempotency-Key is already in progress"},
	{domain.ErrAuthUnavailable, http.StatusServiceUnavailable, "Auth service unavailable"},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (routing 404/405, limiter 429, validation 422, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			if d.code == http.StatusServiceUnavailable {
				log.Error().Err(err).Str("path", c.Path()).Msg("dependency unavailable")
			}
			return d.code, d.msg
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
