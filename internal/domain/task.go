package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the progress of a personal to-do task.
type TaskStatus string

const (
	TaskPending TaskStatus = "Pending"
	TaskWorking TaskStatus = "Working"
	TaskDone    TaskStatus = "Done"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskWorking, TaskDone:
		return true
	}
	return false
}

// Next is the status a toggle moves to: Pending, Working, Done, then back
// to Pending.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case TaskPending:
		return TaskWorking
	case TaskWorking:
		return TaskDone
	default:
		return TaskPending
	}
}

// Task is a to-do item owned by one user. DueTime, when set, is a
// wall-clock time in ClockLayout.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	DueTime   *string    `json:"due_time,omitempty"`
	Status    TaskStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// TaskPatch is a partial update; empty values leave fields unchanged.
type TaskPatch struct {
	Title   string
	DueDate *time.Time
	DueTime *string
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) Task {
	if title := strings.TrimSpace(p.Title); title != "" {
		t.Title = title
	}
	if p.DueDate != nil && !p.DueDate.IsZero() {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.DueTime != nil && *p.DueTime != "" {
		v := *p.DueTime
		t.DueTime = &v
	}
	return t
}
