package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// BudgetService manages a trip's budget, its planned entries and its
// expenses. Every mutation locks the budget row, applies the change and
// recomputes the totals from scratch before the transaction commits.
type BudgetService struct {
	tx     Transactor
	policy SharePolicy
	log    *slog.Logger
}

// NewBudgetService constructs a BudgetService. A nil policy defaults to
// NarrowToParticipants.
func NewBudgetService(tx Transactor, policy SharePolicy, log *slog.Logger) *BudgetService {
	if policy == nil {
		policy = NarrowToParticipants
	}
	return &BudgetService{tx: tx, policy: policy, log: log.With("service", "BudgetService")}
}

// Init returns the trip's budget, creating it if needed.
func (s *BudgetService) Init(ctx context.Context, actor, tripID uuid.UUID) (domain.Budget, error) {
	var b domain.Budget
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		var err error
		b, err = r.Budgets.Init(ctx, tripID)
		return err
	})
	if err != nil {
		return domain.Budget{}, fmt.Errorf("service.BudgetService.Init: %w", err)
	}
	return b, nil
}

// Get returns totals, remaining amount, planned entries and expenses.
// The budget is created on first access.
func (s *BudgetService) Get(ctx context.Context, actor, tripID uuid.UUID) (domain.BudgetDetail, error) {
	var d domain.BudgetDetail
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := r.Budgets.Init(ctx, tripID)
		if err != nil {
			return err
		}
		d, err = loadBudgetDetail(ctx, r, b)
		return err
	})
	if err != nil {
		return domain.BudgetDetail{}, fmt.Errorf("service.BudgetService.Get: %w", err)
	}
	return d, nil
}

func loadBudgetDetail(ctx context.Context, r repo.Repos, b domain.Budget) (domain.BudgetDetail, error) {
	d := domain.BudgetDetail{Budget: b, Remaining: b.Remaining()}
	var err error
	if d.Planned, err = r.Planned.ListByBudget(ctx, b.ID); err != nil {
		return domain.BudgetDetail{}, err
	}
	if d.Expenses, err = r.Expenses.ListByBudget(ctx, b.ID); err != nil {
		return domain.BudgetDetail{}, err
	}
	return d, nil
}

// AddPlanned adds a planned allocation, creating the budget if needed.
func (s *BudgetService) AddPlanned(ctx context.Context, actor, tripID uuid.UUID, amount decimal.Decimal, category string) (domain.PlannedBudget, error) {
	category = strings.TrimSpace(category)
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.PlannedBudget{}, err
	}
	if err := domain.ValidateCategory(category); err != nil {
		return domain.PlannedBudget{}, err
	}

	var pb domain.PlannedBudget
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, true)
		if err != nil {
			return err
		}
		if pb, err = r.Planned.Create(ctx, domain.PlannedBudget{BudgetID: b.ID, Amount: amount, Category: category}); err != nil {
			return err
		}
		_, err = r.Budgets.RecomputeTotals(ctx, b.ID)
		return err
	})
	if err != nil {
		return domain.PlannedBudget{}, fmt.Errorf("service.BudgetService.AddPlanned: %w", err)
	}
	return pb, nil
}

// UpdatePlanned changes the amount and/or category of a planned entry.
// Nil arguments leave the field unchanged.
func (s *BudgetService) UpdatePlanned(ctx context.Context, actor, tripID, plannedID uuid.UUID, amount *decimal.Decimal, category *string) (domain.PlannedBudget, error) {
	var pb domain.PlannedBudget
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, false)
		if err != nil {
			return err
		}
		if pb, err = plannedOf(ctx, r, b.ID, plannedID); err != nil {
			return err
		}
		if amount != nil {
			pb.Amount = *amount
		}
		if category != nil {
			pb.Category = strings.TrimSpace(*category)
		}
		if err := domain.ValidateAmount(pb.Amount); err != nil {
			return err
		}
		if err := domain.ValidateCategory(pb.Category); err != nil {
			return err
		}
		if pb, err = r.Planned.Update(ctx, pb); err != nil {
			return err
		}
		_, err = r.Budgets.RecomputeTotals(ctx, b.ID)
		return err
	})
	if err != nil {
		return domain.PlannedBudget{}, fmt.Errorf("service.BudgetService.UpdatePlanned: %w", err)
	}
	return pb, nil
}

// DeletePlanned removes a planned entry and recomputes the totals.
func (s *BudgetService) DeletePlanned(ctx context.Context, actor, tripID, plannedID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, false)
		if err != nil {
			return err
		}
		if _, err := plannedOf(ctx, r, b.ID, plannedID); err != nil {
			return err
		}
		if err := r.Planned.Delete(ctx, plannedID); err != nil {
			return err
		}
		_, err = r.Budgets.RecomputeTotals(ctx, b.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("service.BudgetService.DeletePlanned: %w", err)
	}
	return nil
}

// AddExpense records money spent, creating the budget if needed. The actor
// is always a stakeholder. Requested co-stakeholders pass through the share
// policy; when any remain the expense starts Accepted, otherwise Unshared.
func (s *BudgetService) AddExpense(ctx context.Context, actor, tripID uuid.UUID, in domain.NewExpense) (domain.Expense, error) {
	in.Category = strings.TrimSpace(in.Category)
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return domain.Expense{}, err
	}
	if err := domain.ValidateCategory(in.Category); err != nil {
		return domain.Expense{}, err
	}

	var e domain.Expense
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, true)
		if err != nil {
			return err
		}
		others, err := s.resolveShare(ctx, r, tripID, in.SharedWith)
		if err != nil {
			return err
		}
		stakeholders := withUser(others, actor)
		status := domain.ExpenseUnshared
		if len(stakeholders) > 1 {
			status = domain.ExpenseAccepted
		}
		e, err = r.Expenses.Create(ctx, domain.Expense{
			BudgetID:    b.ID,
			CreatedBy:   actor,
			Amount:      in.Amount,
			Description: strings.TrimSpace(in.Description),
			Category:    in.Category,
			Status:      status,
			SharedWith:  stakeholders,
			PendingWith: []uuid.UUID{},
		})
		if err != nil {
			return err
		}
		_, err = r.Budgets.RecomputeTotals(ctx, b.ID)
		return err
	})
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.BudgetService.AddExpense: %w", err)
	}
	return e, nil
}

// UpdateExpense applies a partial patch. A non-nil SharedWith replaces the
// stakeholder set through the share policy; the editor stays a stakeholder.
func (s *BudgetService) UpdateExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID, patch domain.ExpensePatch) (domain.Expense, error) {
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
		if patch.Amount != nil {
			e.Amount = *patch.Amount
		}
		if patch.Description != nil {
			e.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Category != nil {
			e.Category = strings.TrimSpace(*patch.Category)
		}
		if err := domain.ValidateAmount(e.Amount); err != nil {
			return err
		}
		if err := domain.ValidateCategory(e.Category); err != nil {
			return err
		}
		before := e
		if patch.SharedWith != nil {
			others, err := s.resolveShare(ctx, r, tripID, patch.SharedWith)
			if err != nil {
				return err
			}
			e.SharedWith = withUser(others, actor)
			e.PendingWith = without(e.PendingWith, e.SharedWith)
			e.Status = reshareStatus(e)
			if err := r.Expenses.SetSharedUsers(ctx, e.ID, e.SharedWith); err != nil {
				return err
			}
		}
		if e, err = r.Expenses.Update(ctx, e); err != nil {
			return err
		}
		if err := settleDropped(ctx, r, before, e); err != nil {
			return err
		}
		_, err = r.Budgets.RecomputeTotals(ctx, b.ID)
		return err
	})
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.BudgetService.UpdateExpense: %w", err)
	}
	return e, nil
}

// reshareStatus is the status after the stakeholder set was replaced. Open
// offers keep the current status; otherwise it follows AddExpense: a lone
// stakeholder is Unshared and a shared expense that was Unshared is Accepted.
func reshareStatus(e domain.Expense) domain.ExpenseStatus {
	switch {
	case len(e.PendingWith) > 0:
		return e.Status
	case len(e.SharedWith) <= 1:
		return domain.ExpenseUnshared
	case e.Status == domain.ExpenseUnshared:
		return domain.ExpenseAccepted
	default:
		return e.Status
	}
}

// DeleteExpense removes an expense, its stakeholder links and share
// notifications, then recomputes the totals.
func (s *BudgetService) DeleteExpense(ctx context.Context, actor, tripID, expenseID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		b, err := lockBudget(ctx, r, tripID, false)
		if err != nil {
			return err
		}
		if _, err := expenseOf(ctx, r, b.ID, expenseID); err != nil {
			return err
		}
		return deleteExpense(ctx, r, b.ID, expenseID)
	})
	if err != nil {
		return fmt.Errorf("service.BudgetService.DeleteExpense: %w", err)
	}
	return nil
}

func deleteExpense(ctx context.Context, r repo.Repos, budgetID, expenseID uuid.UUID) error {
	if err := r.Notifications.DeleteBySubjects(ctx, []uuid.UUID{expenseID}); err != nil {
		return err
	}
	if err := r.Expenses.Delete(ctx, expenseID); err != nil {
		return err
	}
	_, err := r.Budgets.RecomputeTotals(ctx, budgetID)
	return err
}

// lockBudget returns the trip's budget locked FOR UPDATE. With create set a
// missing budget is initialised; otherwise domain.ErrNotFound is returned.
func lockBudget(ctx context.Context, r repo.Repos, tripID uuid.UUID, create bool) (domain.Budget, error) {
	var (
		b   domain.Budget
		err error
	)
	if create {
		b, err = r.Budgets.Init(ctx, tripID)
	} else {
		b, err = r.Budgets.GetByTripID(ctx, tripID)
	}
	if err != nil {
		return domain.Budget{}, err
	}
	return r.Budgets.LockByID(ctx, b.ID)
}

// plannedOf loads a planned entry and checks it belongs to budgetID.
func plannedOf(ctx context.Context, r repo.Repos, budgetID, plannedID uuid.UUID) (domain.PlannedBudget, error) {
	pb, err := r.Planned.GetByID(ctx, plannedID)
	if err != nil {
		return domain.PlannedBudget{}, err
	}
	if pb.BudgetID != budgetID {
		return domain.PlannedBudget{}, domain.ErrNotFound
	}
	return pb, nil
}

// expenseOf loads an expense and checks it belongs to budgetID.
func expenseOf(ctx context.Context, r repo.Repos, budgetID, expenseID uuid.UUID) (domain.Expense, error) {
	e, err := r.Expenses.GetByID(ctx, expenseID)
	if err != nil {
		return domain.Expense{}, err
	}
	if e.BudgetID != budgetID {
		return domain.Expense{}, domain.ErrNotFound
	}
	return e, nil
}

// resolveShare turns requested usernames into user IDs allowed by the policy.
func (s *BudgetService) resolveShare(ctx context.Context, r repo.Repos, tripID uuid.UUID, usernames []string) ([]uuid.UUID, error) {
	names := cleanUsernames(usernames)
	if len(names) == 0 {
		return []uuid.UUID{}, nil
	}
	found, err := r.Users.ListByUsernames(ctx, names)
	if err != nil {
		return nil, err
	}
	participants, err := r.Participants.ListUserIDs(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.policy(names, found, participants)
}

// withUser returns ids with userID first and no duplicates.
func withUser(ids []uuid.UUID, userID uuid.UUID) []uuid.UUID {
	out := []uuid.UUID{userID}
	for _, id := range ids {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

// without returns ids minus every member of drop.
func without(ids, drop []uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(slices.Clone(ids), func(id uuid.UUID) bool {
		return slices.Contains(drop, id)
	})
}
