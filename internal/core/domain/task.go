package domain

import "time"

// TaskStatus represents the progress state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is a unit of work owned by a single user.
type Task struct {
	ID          int64      `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description *string    `json:"description" bson:"description,omitempty"`
	OwnerID     int64      `json:"owner_id" bson:"owner_id"`
	Status      TaskStatus `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

// OwnedBy reports whether the task belongs to the given user.
func (t *Task) OwnedBy(userID int64) bool {
	return t.OwnerID == userID
}
