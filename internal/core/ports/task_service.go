package ports

import (
	"context"

	"github.com/99minutos/taskhub/internal/core/domain"
)

// CreateTaskInput carries the fields accepted by POST /tasks/.
// There is deliberately no owner field: the owner is always the caller.
type CreateTaskInput struct {
	Title          string
	Description    *string
	Status         domain.TaskStatus // empty = pending
	IdempotencyKey string
}

// TaskService defines the task use cases. Every call receives the identity
// resolved for the current request.
type TaskService interface {
	CreateTask(ctx context.Context, caller *domain.Identity, input CreateTaskInput) (*domain.Task, error)
	ListTasks(ctx context.Context, caller *domain.Identity) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, caller *domain.Identity, taskID int64, status domain.TaskStatus) (*domain.Task, error)
	DeleteTask(ctx context.Context, caller *domain.Identity, taskID int64) error
}
