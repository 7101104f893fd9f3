package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus is the sharing state of an expense.
type ExpenseStatus string

const (
	ExpenseUnshared ExpenseStatus = "Unshared"
	ExpensePending  ExpenseStatus = "Pending"
	ExpenseAccepted ExpenseStatus = "Accepted"
	ExpenseRejected ExpenseStatus = "Rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpenseUnshared, ExpensePending, ExpenseAccepted, ExpenseRejected:
		return true
	}
	return false
}

// Expense is money spent against a trip budget.
//
// SharedWith holds the stakeholders; it is never empty for a persisted
// expense. PendingWith holds users who were asked to share the expense and
// have not answered yet.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	BudgetID    uuid.UUID       `json:"budget_id"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Status      ExpenseStatus   `json:"status"`
	SharedWith  []uuid.UUID     `json:"shared_with"`
	PendingWith []uuid.UUID     `json:"pending_with"`
}

// NewExpense carries the fields needed to add an expense. SharedWith holds
// usernames; the creator is always a stakeholder and need not be listed.
type NewExpense struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	SharedWith  []string
}

// ExpensePatch is a partial update. A non-nil SharedWith replaces the
// stakeholder set (the editor stays a stakeholder).
type ExpensePatch struct {
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	SharedWith  []string
}

// IsStakeholder reports whether userID is in the shared set.
func (e Expense) IsStakeholder(userID uuid.UUID) bool {
	return slices.Contains(e.SharedWith, userID)
}

// IsPendingFor reports whether userID has an unanswered share request.
func (e Expense) IsPendingFor(userID uuid.UUID) bool {
	return slices.Contains(e.PendingWith, userID)
}

// RequestShare moves the expense to Pending and records the users it is
// offered to. It may be called from any state.
func (e Expense) RequestShare(targets []uuid.UUID) Expense {
	e.Status = ExpensePending
	e.PendingWith = slices.Clone(targets)
	return e
}

// Respond applies a share response from responder.
// Accepting makes the responder a stakeholder and removes them from the
// pending list. Any other response rejects the share and clears the pending list.
func (e Expense) Respond(responder uuid.UUID, accept bool) Expense {
	if !accept {
		e.Status = ExpenseRejected
		e.PendingWith = []uuid.UUID{}
		return e
	}
	e.Status = ExpenseAccepted
	e.PendingWith = slices.DeleteFunc(slices.Clone(e.PendingWith), func(id uuid.UUID) bool {
		return id == responder
	})
	if !e.IsStakeholder(responder) {
		e.SharedWith = append(slices.Clone(e.SharedWith), responder)
	}
	return e
}

// Without returns the shared set minus userID.
func (e Expense) Without(userID uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(slices.Clone(e.SharedWith), func(id uuid.UUID) bool {
		return id == userID
	})
}

// SumExpenses adds up the amounts of the given expenses.
func SumExpenses(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func wrapValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
