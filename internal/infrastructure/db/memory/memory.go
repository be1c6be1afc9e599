// Package memory provides process-local implementations of the user and task
// repositories. They back STORE_DRIVER=memory and the router tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/core/ports"
	"github.com/99minutos/taskhub/internal/infrastructure/metrics"
)

// UserRepository implements ports.UserRepository in memory.
type UserRepository struct {
	mu      sync.RWMutex
	seq     int64
	byID    map[int64]domain.User
	byEmail map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[int64]domain.User),
		byEmail: make(map[string]int64),
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	r.seq++
	stored := *user
	stored.ID = r.seq
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	return nil
}

// TaskRepository implements ports.TaskRepository in memory.
type TaskRepository struct {
	mu    sync.RWMutex
	seq   int64
	tasks map[int64]domain.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[int64]domain.Task)}
}

func (r *TaskRepository) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	t.ID = r.seq
	r.tasks[t.ID] = copyTask(*t)
	metrics.TasksCreatedTotal.WithLabelValues(string(t.Status)).Inc()
	return nil
}

func (r *TaskRepository) FindByID(_ context.Context, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	out := copyTask(t)
	return &out, nil
}

func (r *TaskRepository) List(_ context.Context, f ports.TaskFilter) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if f.OwnerID != 0 && t.OwnerID != f.OwnerID {
			continue
		}
		c := copyTask(t)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TaskRepository) UpdateStatus(_ context.Context, id int64, status domain.TaskStatus) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t.Status = status
	r.tasks[id] = t

	out := copyTask(t)
	return &out, nil
}

func (r *TaskRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func copyTask(t domain.Task) domain.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	return t
}
