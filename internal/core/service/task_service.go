package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/core/ports"
)

// TaskService implements the task use cases on behalf of an authenticated caller.
type TaskService struct {
	repo        ports.TaskRepository
	notifier    ports.Notifier
	idempotency ports.IdempotencyStore // optional
	logger      zerolog.Logger
}

// NewTaskService wires the service. idempotency may be nil, in which case
// Idempotency-Key headers are ignored.
func NewTaskService(repo ports.TaskRepository, notifier ports.Notifier, idempotency ports.IdempotencyStore, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, notifier: notifier, idempotency: idempotency, logger: logger}
}

// CreateTask stores a task owned by the caller and fires a notification.
// A replayed idempotency key returns the earlier task without side effects.
func (s *TaskService) CreateTask(ctx context.Context, caller *domain.Identity, input ports.CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.ErrTitleRequired
	}
	status := input.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	key, existing, err := s.reserve(ctx, caller.UserID, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		OwnerID:     caller.UserID,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error().Err(err).Int64("owner_id", caller.UserID).Msg("failed to create task")
		if key != "" {
			if rerr := s.idempotency.Release(ctx, caller.UserID, key); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	if key != "" {
		if err := s.idempotency.Complete(ctx, caller.UserID, key, task.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Int64("task_id", task.ID).Int64("owner_id", task.OwnerID).Msg("task created")

	s.notifier.Notify(ctx, caller.UserID, "New task created: "+task.Title)
	return task, nil
}

// reserve claims the idempotency key before anything is written. It returns
// the key to complete afterwards ("" when idempotency does not apply) or the
// task an earlier request already created under it.
func (s *TaskService) reserve(ctx context.Context, ownerID int64, key string) (string, *domain.Task, error) {
	if key == "" || s.idempotency == nil {
		return "", nil, nil
	}

	taskID, reserved, err := s.idempotency.Reserve(ctx, ownerID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating anyway")
		return "", nil, nil
	}
	if reserved {
		return key, nil, nil
	}
	if taskID == 0 {
		return "", nil, domain.ErrRequestInFlight
	}

	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		// The task was deleted since; the key now refers to the new one.
		return key, nil, nil
	}
	s.logger.Info().Str("idempotency_key", key).Int64("task_id", task.ID).Msg("idempotent replay")
	return "", task, nil
}

// ListTasks returns every task to admins and only their own tasks to everyone else.
func (s *TaskService) ListTasks(ctx context.Context, caller *domain.Identity) ([]*domain.Task, error) {
	filter := ports.TaskFilter{OwnerID: caller.UserID}
	if caller.IsAdmin() {
		filter.OwnerID = 0
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask changes the status of a task owned by the caller; admins may
// update any task.
func (s *TaskService) UpdateTask(ctx context.Context, caller *domain.Identity, taskID int64, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !task.OwnedBy(caller.UserID) {
		return nil, domain.ErrNotTaskOwner
	}

	updated, err := s.repo.UpdateStatus(ctx, taskID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("task_id", taskID).Str("status", string(status)).Int64("by", caller.UserID).Msg("task updated")
	return updated, nil
}

// DeleteTask removes a task. Only admins may delete, and the role check runs
// before the task is looked up, so non-admins never learn whether an id exists.
func (s *TaskService) DeleteTask(ctx context.Context, caller *domain.Identity, taskID int64) error {
	if !caller.IsAdmin() {
		return domain.ErrAdminRequired
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.logger.Info().Int64("task_id", taskID).Int64("by", caller.UserID).Msg("task deleted")
	return nil
}
