package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/core/ports"
	"github.com/99minutos/taskhub/internal/core/token"
)

const defaultTokenTTL = 30 * time.Minute

// AuthService implements registration, login and token validation.
type AuthService struct {
	repo     ports.UserRepository
	codec    *token.Codec
	tokenTTL time.Duration
	log      zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, codec *token.Codec, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{repo: repo, codec: codec, tokenTTL: tokenTTL, log: log}
}

// Register stores a new user with a bcrypt hash of the password. The role is
// taken from the caller as given and defaults to domain.RoleUser.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login verifies the credentials and issues an access token. An unknown
// email and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	tok, err := s.codec.Issue(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	return tok, nil
}

// Validate decodes the token and confirms its subject still exists. The
// returned identity carries the email and role currently stored, not the
// role embedded in the token.
func (s *AuthService) Validate(ctx context.Context, raw string) (*domain.Identity, error) {
	claims, err := s.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("validate token: %w", err)
	}

	if user.Role != claims.Role {
		s.log.Warn().
			Int64("user_id", user.ID).
			Str("token_role", claims.Role).
			Str("stored_role", user.Role).
			Msg("token role differs from stored role")
	}

	return &domain.Identity{UserID: user.ID, Role: user.Role, Email: user.Email}, nil
}
