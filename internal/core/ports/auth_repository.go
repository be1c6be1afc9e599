package ports

import (
	"context"

	"github.com/99minutos/taskhub/internal/core/domain"
)

// UserRepository is the Credential Store owned by the Authentication Service.
type UserRepository interface {
	// Create assigns the user a new ID. Returns domain.ErrEmailTaken when the
	// email is already stored (exact, case-sensitive match).
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Delete removes the user; outstanding tokens stop validating immediately.
	Delete(ctx context.Context, id int64) error
}
