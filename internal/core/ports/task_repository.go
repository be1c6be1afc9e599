package ports

import (
	"context"

	"github.com/99minutos/taskhub/internal/core/domain"
)

// TaskFilter narrows List results.
type TaskFilter struct {
	OwnerID int64 // 0 = every owner (admin view)
}

// TaskRepository is the Task Store owned by the Task Service.
type TaskRepository interface {
	// Create assigns the task a new ID.
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id int64) (*domain.Task, error)
	// List returns matching tasks ordered by ID.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TaskStatus) (*domain.Task, error)
	// Delete returns domain.ErrTaskNotFound when nothing was removed.
	Delete(ctx context.Context, id int64) error
}

// IdempotencyStore remembers which task a client-supplied Idempotency-Key
// produced for a given owner. A key is reserved before the task is created so
// concurrent requests with the same key cannot both create one.
type IdempotencyStore interface {
	// Reserve claims key for ownerID. When the key is already taken it
	// returns reserved=false and the stored task id, which is 0 while the
	// first request is still in flight.
	Reserve(ctx context.Context, ownerID int64, key string) (taskID int64, reserved bool, err error)
	// Complete records the task created under a reserved key.
	Complete(ctx context.Context, ownerID int64, key string, taskID int64) error
	// Release drops a reservation whose create failed.
	Release(ctx context.Context, ownerID int64, key string) error
}
