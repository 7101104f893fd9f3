package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// SplitExpense offers the expense to the named users. The expense moves to
// Pending from any state and the offer list is replaced. Targets that were
// not already pending get an expense_share notification; users left off the
// new list have their open notifications rejected. Only a stakeholder may
// offer an expense.
func (s *BudgetService) SplitExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID, usernames []string) (domain.Expense, error) {
	var e domain.Expense
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, false)
		if err != nil {
			return err
		}
		if e, err = expenseOf(ctx, r, b.ID, expenseID); err != nil {
			return err
		}
		if !e.IsStakeholder(actor) {
			return fmt.Errorf("%w: only stakeholders can share an expense", domain.ErrForbidden)
		}
		targets, err := s.resolveShare(ctx, r, tripID, usernames)
		if err != nil {
			return err
		}
		targets = without(targets, e.SharedWith)
		if len(targets) == 0 {
			return fmt.Errorf("%w: no eligible users to share with", domain.ErrValidation)
		}
		sender, err := r.Users.GetByID(ctx, actor)
		if err != nil {
			return err
		}
		before := e
		if e, err = r.Expenses.Update(ctx, e.RequestShare(targets)); err != nil {
			return err
		}
		if err := settleDropped(ctx, r, before, e); err != nil {
			return err
		}
		for _, target := range without(targets, before.PendingWith) {
			_, err := r.Notifications.Create(ctx, domain.Notification{
				Kind:       domain.NotifyExpenseShare,
				SenderID:   actor,
				ReceiverID: target,
				SubjectID:  e.ID,
				Message:    fmt.Sprintf("%s wants to share expense %q (%s) with you.", sender.Username, e.Description, e.Amount.StringFixed(2)),
				Status:     domain.NotificationPending,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.BudgetService.SplitExpense: %w", err)
	}
	return e, nil
}

// RespondToShare answers a pending share offer. Accepting makes the actor a
// stakeholder; rejecting marks the expense Rejected, clears the offer list and
// rejects the notifications of the other users it was offered to.
func (s *BudgetService) RespondToShare(ctx context.Context, actor, tripID, expenseID uuid.UUID, accept bool) (domain.Expense, error) {
	var e domain.Expense
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, false)
		if err != nil {
			return err
		}
		e, err = respondToShare(ctx, r, b.ID, expenseID, actor, accept)
		return err
	})
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.BudgetService.RespondToShare: %w", err)
	}
	return e, nil
}

// respondToShare applies a share response under an already held budget lock
// and resolves the responder's pending notifications about the expense.
func respondToShare(ctx context.Context, r repo.Repos, budgetID, expenseID, responder uuid.UUID, accept bool) (domain.Expense, error) {
	e, err := expenseOf(ctx, r, budgetID, expenseID)
	if err != nil {
		return domain.Expense{}, err
	}
	if !e.IsPendingFor(responder) {
		return domain.Expense{}, fmt.Errorf("%w: no pending share request for this user", domain.ErrForbidden)
	}
	before := e
	next := e.Respond(responder, accept)
	if accept {
		if err := r.Expenses.SetSharedUsers(ctx, e.ID, next.SharedWith); err != nil {
			return domain.Expense{}, err
		}
	}
	if e, err = r.Expenses.Update(ctx, next); err != nil {
		return domain.Expense{}, err
	}
	if err := r.Notifications.ResolvePending(ctx, e.ID, responder, domain.StatusFor(accept)); err != nil {
		return domain.Expense{}, err
	}
	if err := settleDropped(ctx, r, before, e); err != nil {
		return domain.Expense{}, err
	}
	return e, nil
}

// settleDropped resolves the pending notifications of every user who was on
// the offer list of before but is no longer on the one of after. Users who
// became stakeholders get theirs accepted, everyone else rejected.
func settleDropped(ctx context.Context, r repo.Repos, before, after domain.Expense) error {
	for _, userID := range without(before.PendingWith, after.PendingWith) {
		status := domain.StatusFor(after.IsStakeholder(userID))
		if err := r.Notifications.ResolvePending(ctx, after.ID, userID, status); err != nil {
			return err
		}
	}
	return nil
}

// LeaveExpense removes userID from the expense's stakeholders. Only the user
// themself may do this. When nobody is left the expense is deleted and the
// totals are recomputed; the returned flag reports that.
func (s *BudgetService) LeaveExpense(ctx context.Context, actor, tripID, expenseID, userID uuid.UUID) (bool, error) {
	if actor != userID {
		return false, fmt.Errorf("service.BudgetService.LeaveExpense: %w: users can only remove themselves", domain.ErrForbidden)
	}
	var deleted bool
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, false)
		if err != nil {
			return err
		}
		e, err := expenseOf(ctx, r, b.ID, expenseID)
		if err != nil {
			return err
		}
		if !e.IsStakeholder(userID) {
			return fmt.Errorf("%w: not a stakeholder of this expense", domain.ErrForbidden)
		}
		if len(e.Without(userID)) == 0 {
			deleted = true
			return deleteExpense(ctx, r, b.ID, e.ID)
		}
		return r.Expenses.RemoveSharedUser(ctx, e.ID, userID)
	})
	if err != nil {
		return false, fmt.Errorf("service.BudgetService.LeaveExpense: %w", err)
	}
	if deleted {
		s.log.InfoContext(ctx, "expense deleted after last stakeholder left",
			slog.String("expense_id", expenseID.String()),
			slog.String("trip_id", tripID.String()),
		)
	}
	return deleted, nil
}
