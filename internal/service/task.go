package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// TaskService manages a user's personal to-do list. Every operation is
// scoped to the acting user; other users' tasks read as not found.
type TaskService struct {
	tx  Transactor
	log *slog.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(tx Transactor, log *slog.Logger) *TaskService {
	return &TaskService{tx: tx, log: log.With("service", "TaskService")}
}

// Add creates a Pending task for the actor.
// Returns domain.ErrValidation if the title is blank or the due time is not HH:MM.
func (s *TaskService) Add(ctx context.Context, actor uuid.UUID, t domain.Task) (domain.Task, error) {
	t.UserID = actor
	t.Title = strings.TrimSpace(t.Title)
	t.Status = domain.TaskPending
	if t.DueTime != nil && *t.DueTime == "" {
		t.DueTime = nil
	}
	if t.Title == "" {
		return domain.Task{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if err := validateClock(t.DueTime); err != nil {
		return domain.Task{}, err
	}

	var created domain.Task
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		created, err = r.Tasks.Create(ctx, t)
		return err
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("service.TaskService.Add: %w", err)
	}
	return created, nil
}

// List returns the actor's tasks, oldest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TaskService) List(ctx context.Context, actor uuid.UUID) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		tasks, err = r.Tasks.ListByUser(ctx, actor)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.TaskService.List: %w", err)
	}
	if tasks == nil {
		return []domain.Task{}, nil
	}
	return tasks, nil
}

// Update applies a partial patch to one of the actor's tasks. Status is
// changed only through Toggle.
func (s *TaskService) Update(ctx context.Context, actor, taskID uuid.UUID, patch domain.TaskPatch) (domain.Task, error) {
	if err := validateClock(patch.DueTime); err != nil {
		return domain.Task{}, err
	}
	var updated domain.Task
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		t, err := r.Tasks.LockByID(ctx, actor, taskID)
		if err != nil {
			return err
		}
		updated, err = r.Tasks.Update(ctx, patch.Apply(t))
		return err
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("service.TaskService.Update: %w", err)
	}
	return updated, nil
}

// Toggle advances the task's status one step around
// Pending, Working, Done and back to Pending.
func (s *TaskService) Toggle(ctx context.Context, actor, taskID uuid.UUID) (domain.Task, error) {
	var toggled domain.Task
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		t, err := r.Tasks.LockByID(ctx, actor, taskID)
		if err != nil {
			return err
		}
		t.Status = t.Status.Next()
		toggled, err = r.Tasks.Update(ctx, t)
		return err
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("service.TaskService.Toggle: %w", err)
	}
	return toggled, nil
}

// Delete removes one of the actor's tasks.
// Returns domain.ErrNotFound if the actor has no such task.
func (s *TaskService) Delete(ctx context.Context, actor, taskID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		return r.Tasks.Delete(ctx, actor, taskID)
	})
	if err != nil {
		return fmt.Errorf("service.TaskService.Delete: %w", err)
	}
	return nil
}

// Clear removes all of the actor's tasks and reports how many were deleted.
func (s *TaskService) Clear(ctx context.Context, actor uuid.UUID) (int64, error) {
	var n int64
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		n, err = r.Tasks.DeleteByUser(ctx, actor)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("service.TaskService.Clear: %w", err)
	}
	s.log.InfoContext(ctx, "tasks cleared", "user_id", actor, "count", n)
	return n, nil
}
