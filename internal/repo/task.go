package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// TaskRepo defines the persistence operations for personal tasks.
// Single-task operations are scoped by userID so nobody reaches another
// user's tasks.
type TaskRepo interface {
	Create(ctx context.Context, t domain.Task) (domain.Task, error)

	// LockByID loads and row-locks the user's task.
	// Returns domain.ErrNotFound if the user has no task with that ID.
	LockByID(ctx context.Context, userID, taskID uuid.UUID) (domain.Task, error)

	// ListByUser returns the user's tasks, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)

	// Update overwrites title, due date, due time and status, scoped to t.UserID.
	Update(ctx context.Context, t domain.Task) (domain.Task, error)

	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// DeleteByUser removes every task of the user and reports how many.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type pgTaskRepo struct {
	db db
}

// NewTaskRepo constructs a TaskRepo backed by the provided db connection.
func NewTaskRepo(db db) TaskRepo {
	return &pgTaskRepo{db: db}
}

const taskColumns = `id, user_id, title, due_date, to_char(due_time, 'HH24:MI'), status, created_at`

func (r *pgTaskRepo) Create(ctx context.Context, t domain.Task) (domain.Task, error) {
	const q = `
		INSERT INTO tasks (user_id, title, due_date, due_time, status)
		VALUES (@user_id, @title, @due_date, @due_time::text::time, @status)
		RETURNING ` + taskColumns

	status := t.Status
	if status == "" {
		status = domain.TaskPending
	}
	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"user_id":  t.UserID,
		"title":    t.Title,
		"due_date": dateArg(t.DueDate),
		"due_time": t.DueTime,
		"status":   string(status),
	})
	result, err := scanTask(row)
	if err != nil {
		return domain.Task{}, fmt.Errorf("repo.TaskRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTaskRepo) LockByID(ctx context.Context, userID, taskID uuid.UUID) (domain.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = @id AND user_id = @user_id
		FOR UPDATE`

	result, err := scanTask(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": taskID, "user_id": userID}))
	if err != nil {
		return domain.Task{}, fmt.Errorf("repo.TaskRepo.LockByID: %w", err)
	}
	return result, nil
}

func (r *pgTaskRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	const q = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = @user_id
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.TaskRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TaskRepo.ListByUser: scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TaskRepo.ListByUser: rows: %w", err)
	}
	return tasks, nil
}

func (r *pgTaskRepo) Update(ctx context.Context, t domain.Task) (domain.Task, error) {
	const q = `
		UPDATE tasks
		SET title    = @title,
		    due_date = @due_date,
		    due_time = @due_time::text::time,
		    status   = @status
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + taskColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":       t.ID,
		"user_id":  t.UserID,
		"title":    t.Title,
		"due_date": dateArg(t.DueDate),
		"due_time": t.DueTime,
		"status":   string(t.Status),
	})
	result, err := scanTask(row)
	if err != nil {
		return domain.Task{}, fmt.Errorf("repo.TaskRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgTaskRepo) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	const q = `DELETE FROM tasks WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": taskID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.TaskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TaskRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTaskRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `DELETE FROM tasks WHERE user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("repo.TaskRepo.DeleteByUser: %w", err)
	}
	return tag.RowsAffected(), nil
}

// dateArg turns an optional date into a DATE argument; nil becomes NULL.
func dateArg(d *time.Time) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *d, Valid: true}
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t          domain.Task
		id, userID pgtype.UUID
		dueDate    pgtype.Date
		status     string
	)
	if err := s.Scan(&id, &userID, &t.Title, &dueDate, &t.DueTime, &status, &t.CreatedAt); err != nil {
		return domain.Task{}, notFound(err)
	}
	t.ID = uuid.UUID(id.Bytes)
	t.UserID = uuid.UUID(userID.Bytes)
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	t.Status = domain.TaskStatus(status)
	return t, nil
}
