package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/core/ports"
	"github.com/99minutos/taskhub/internal/core/token"
)

type stubUserRepo struct {
	byID   map[int64]*domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = r.nextID
	r.byID[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newAuthService(t *testing.T, repo ports.UserRepository, clock *testClock) *AuthService {
	t.Helper()
	codec, err := token.NewCodec("secret", "HS256", token.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return NewAuthService(repo, codec, 30*time.Minute, zerolog.Nop())
}

func register(t *testing.T, svc *AuthService, email, password, role string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "someone", Email: email, Password: password, Role: role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &testClock{t: time.Now()})

	user := register(t, svc, "alice@example.com", "pw123", "")
	if user.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role %q, got %q", domain.RoleUser, user.Role)
	}
	if user.PasswordHash == "pw123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_RoleOverrideAcceptedVerbatim(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), &testClock{t: time.Now()})

	user := register(t, svc, "root@example.com", "pw", domain.RoleAdmin)
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected caller-supplied role to be stored, got %q", user.Role)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), &testClock{t: time.Now()})

	register(t, svc, "bob@example.com", "pass", "")
	_, err := svc.Register(context.Background(), ports.RegisterInput{Name: "b", Email: "bob@example.com", Password: "x"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_EmailMatchIsCaseSensitive(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), &testClock{t: time.Now()})

	register(t, svc, "bob@example.com", "pass", "")
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Name: "b", Email: "Bob@example.com", Password: "x"}); err != nil {
		t.Fatalf("expected differently-cased email to register, got %v", err)
	}
}

func TestAuthService_LoginThenValidate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &testClock{t: time.Now()})

	for _, tc := range []struct{ email, role string }{
		{"carol@example.com", domain.RoleAdmin},
		{"dave@example.com", domain.RoleUser},
	} {
		user := register(t, svc, tc.email, "s3cret", tc.role)

		tok, err := svc.Login(context.Background(), tc.email, "s3cret")
		if err != nil {
			t.Fatalf("login %s: %v", tc.email, err)
		}

		id, err := svc.Validate(context.Background(), tok)
		if err != nil {
			t.Fatalf("validate %s: %v", tc.email, err)
		}
		if id.UserID != user.ID || id.Email != tc.email || id.Role != tc.role {
			t.Fatalf("unexpected identity: %+v", id)
		}
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), &testClock{t: time.Now()})
	register(t, svc, "dave@example.com", "goodpass", "")

	_, wrongPassword := svc.Login(context.Background(), "dave@example.com", "badpass")
	_, unknownEmail := svc.Login(context.Background(), "ghost@example.com", "goodpass")

	if !errors.Is(wrongPassword, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
}

func TestAuthService_Validate_ExpiredToken(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newAuthService(t, newStubUserRepo(), clock)
	register(t, svc, "erin@example.com", "pw", "")

	tok, err := svc.Login(context.Background(), "erin@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	clock.t = clock.t.Add(30*time.Minute + time.Second)
	if _, err := svc.Validate(context.Background(), tok); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after ttl, got %v", err)
	}
}

func TestAuthService_Validate_DeletedUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &testClock{t: time.Now()})
	user := register(t, svc, "frank@example.com", "pw", "")

	tok, _ := svc.Login(context.Background(), "frank@example.com", "pw")
	if err := repo.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.Validate(context.Background(), tok); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if !domain.IsUnauthorized(domain.ErrUserNotFound) {
		t.Fatalf("a missing user must be reported as unauthorized")
	}
}

func TestAuthService_Validate_RoleReadFromStore(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(t, repo, &testClock{t: time.Now()})
	user := register(t, svc, "gina@example.com", "pw", domain.RoleAdmin)

	tok, _ := svc.Login(context.Background(), "gina@example.com", "pw")
	repo.byID[user.ID].Role = domain.RoleUser

	id, err := svc.Validate(context.Background(), tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.Role != domain.RoleUser {
		t.Fatalf("expected stored role to win, got %q", id.Role)
	}
}

func TestAuthService_Validate_Garbage(t *testing.T) {
	svc := newAuthService(t, newStubUserRepo(), &testClock{t: time.Now()})

	if _, err := svc.Validate(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
