package ports

import (
	"context"

	"github.com/99minutos/taskhub/internal/core/domain"
)

// RegisterInput carries the fields accepted by POST /register.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// Role is stored as given; empty means domain.RoleUser.
	Role string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Validate(ctx context.Context, token string) (*domain.Identity, error)
}
