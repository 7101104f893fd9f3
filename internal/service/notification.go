package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// NotificationService lists share notifications and applies responses to
// them, dispatching on the notification kind.
type NotificationService struct {
	tx  Transactor
	log *slog.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(tx Transactor, log *slog.Logger) *NotificationService {
	return &NotificationService{tx: tx, log: log.With("service", "NotificationService")}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor uuid.UUID, pendingOnly bool) ([]domain.Notification, error) {
	var list []domain.Notification
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		list, err = r.Notifications.ListByReceiver(ctx, actor, pendingOnly)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.NotificationService.List: %w", err)
	}
	return list, nil
}

// Respond accepts or rejects a pending notification addressed to the actor.
// Accepting a trip_share joins the trip; an expense_share answer goes
// through the expense-sharing state machine.
func (s *NotificationService) Respond(ctx context.Context, actor, id uuid.UUID, accept bool) (domain.Notification, error) {
	var n domain.Notification
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		if n, err = r.Notifications.LockByID(ctx, id); err != nil {
			return err
		}
		if n.ReceiverID != actor {
			return domain.ErrNotFound
		}
		if n.Status != domain.NotificationPending {
			return fmt.Errorf("%w: notification already answered", domain.ErrConflict)
		}

		switch n.Kind {
		case domain.NotifyTripShare:
			if err := r.Notifications.UpdateStatus(ctx, n.ID, domain.StatusFor(accept)); err != nil {
				return err
			}
			if accept {
				if err := shareTrip(ctx, r, n.SubjectID, actor); err != nil {
					return err
				}
				// Other open invitations to the same trip are answered by joining.
				if err := r.Notifications.ResolvePending(ctx, n.SubjectID, actor, domain.NotificationAccepted); err != nil {
					return err
				}
			}
		case domain.NotifyExpenseShare:
			if err := respondToExpenseNotification(ctx, r, n, accept); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown notification kind %q", domain.ErrValidation, n.Kind)
		}

		n.Status = domain.StatusFor(accept)
		return nil
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("service.NotificationService.Respond: %w", err)
	}
	s.log.InfoContext(ctx, "notification answered",
		slog.String("notification_id", n.ID.String()),
		slog.String("kind", string(n.Kind)),
		slog.String("status", string(n.Status)),
	)
	return n, nil
}

func respondToExpenseNotification(ctx context.Context, r repo.Repos, n domain.Notification, accept bool) error {
	e, err := r.Expenses.GetByID(ctx, n.SubjectID)
	if err != nil {
		return err
	}
	b, err := r.Budgets.LockByID(ctx, e.BudgetID)
	if err != nil {
		return err
	}
	if _, err := requireParticipant(ctx, r, b.TripID, n.ReceiverID); err != nil {
		return err
	}
	_, err = respondToShare(ctx, r, b.ID, e.ID, n.ReceiverID, accept)
	return err
}
