package ports

import (
	"context"

	"github.com/99minutos/taskhub/internal/core/domain"
)

// AuthGateway is how the Task Service obtains a trusted identity. The Task
// Service never verifies token signatures itself; it trusts whatever the
// Authentication Service asserts.
type AuthGateway interface {
	// Authenticate exchanges the raw Authorization header for an identity.
	// Fails with an unauthorized error (see domain.IsUnauthorized) for bad
	// credentials and with domain.ErrAuthUnavailable when the Authentication
	// Service cannot be reached.
	Authenticate(ctx context.Context, authorization string) (*domain.Identity, error)
	// RequireAdmin returns the identity unchanged when it has the admin role
	// and domain.ErrAdminRequired otherwise.
	RequireAdmin(identity *domain.Identity) (*domain.Identity, error)
}
