package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// NotificationRepo defines the persistence operations for share notifications.
type NotificationRepo interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)

	// LockByID loads and row-locks a notification so a response is applied once.
	// Returns domain.ErrNotFound if it does not exist.
	LockByID(ctx context.Context, id uuid.UUID) (domain.Notification, error)

	// ListByReceiver returns the receiver's notifications, newest first.
	ListByReceiver(ctx context.Context, receiverID uuid.UUID, pendingOnly bool) ([]domain.Notification, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error

	// ResolvePending sets status on every pending notification about subjectID
	// addressed to receiverID.
	ResolvePending(ctx context.Context, subjectID, receiverID uuid.UUID, status domain.NotificationStatus) error

	// DeleteBySubjects removes every notification that refers to one of the
	// given trips or expenses.
	DeleteBySubjects(ctx context.Context, subjectIDs []uuid.UUID) error
}

type pgNotificationRepo struct {
	db db
}

// NewNotificationRepo constructs a NotificationRepo backed by the provided db connection.
func NewNotificationRepo(db db) NotificationRepo {
	return &pgNotificationRepo{db: db}
}

const notificationColumns = `id, kind, sender_id, receiver_id, subject_id, message, status, created_at`

func (r *pgNotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const q = `
		INSERT INTO notifications (kind, sender_id, receiver_id, subject_id, message, status)
		VALUES (@kind, @sender_id, @receiver_id, @subject_id, @message, @status)
		RETURNING ` + notificationColumns

	status := n.Status
	if status == "" {
		status = domain.NotificationPending
	}
	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"kind":        string(n.Kind),
		"sender_id":   n.SenderID,
		"receiver_id": n.ReceiverID,
		"subject_id":  n.SubjectID,
		"message":     n.Message,
		"status":      string(status),
	})
	result, err := scanNotification(row)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("repo.NotificationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgNotificationRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	const q = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = @id FOR UPDATE`

	result, err := scanNotification(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("repo.NotificationRepo.LockByID: %w", err)
	}
	return result, nil
}

func (r *pgNotificationRepo) ListByReceiver(ctx context.Context, receiverID uuid.UUID, pendingOnly bool) ([]domain.Notification, error) {
	const q = `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE receiver_id = @receiver_id
		  AND (NOT @pending_only OR status = 'pending')
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"receiver_id": receiverID, "pending_only": pendingOnly})
	if err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByReceiver: %w", err)
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.NotificationRepo.ListByReceiver: scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByReceiver: rows: %w", err)
	}
	return out, nil
}

func (r *pgNotificationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	const q = `UPDATE notifications SET status = @status WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("repo.NotificationRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.NotificationRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgNotificationRepo) ResolvePending(ctx context.Context, subjectID, receiverID uuid.UUID, status domain.NotificationStatus) error {
	const q = `
		UPDATE notifications
		SET status = @status
		WHERE subject_id = @subject_id AND receiver_id = @receiver_id AND status = 'pending'`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"subject_id":  subjectID,
		"receiver_id": receiverID,
		"status":      string(status),
	})
	if err != nil {
		return fmt.Errorf("repo.NotificationRepo.ResolvePending: %w", err)
	}
	return nil
}

func (r *pgNotificationRepo) DeleteBySubjects(ctx context.Context, subjectIDs []uuid.UUID) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	const q = `DELETE FROM notifications WHERE subject_id = ANY(@subject_ids::uuid[])`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"subject_ids": fromUUIDs(subjectIDs)}); err != nil {
		return fmt.Errorf("repo.NotificationRepo.DeleteBySubjects: %w", err)
	}
	return nil
}

func scanNotification(s scanner) (domain.Notification, error) {
	var (
		n                                   domain.Notification
		id, senderID, receiverID, subjectID pgtype.UUID
		kind, status                        string
	)
	err := s.Scan(&id, &kind, &senderID, &receiverID, &subjectID, &n.Message, &status, &n.CreatedAt)
	if err != nil {
		return domain.Notification{}, notFound(err)
	}
	n.ID = uuid.UUID(id.Bytes)
	n.Kind = domain.NotificationKind(kind)
	n.SenderID = uuid.UUID(senderID.Bytes)
	n.ReceiverID = uuid.UUID(receiverID.Bytes)
	n.SubjectID = uuid.UUID(subjectID.Bytes)
	n.Status = domain.NotificationStatus(status)
	return n, nil
}
