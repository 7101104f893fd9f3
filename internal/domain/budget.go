package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budget belongs to exactly one trip and is created on first use.
// TotalPlanned and TotalSpent are derived: they are always recomputed from the
// planned entries and expenses, never adjusted incrementally.
type Budget struct {
	ID           uuid.UUID       `json:"id"`
	TripID       uuid.UUID       `json:"trip_id"`
	TotalPlanned decimal.Decimal `json:"total_planned"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

// Remaining returns planned minus spent. It is negative when the trip is over budget.
func (b Budget) Remaining() decimal.Decimal {
	return b.TotalPlanned.Sub(b.TotalSpent)
}

// PlannedBudget is one planned allocation for a category.
type PlannedBudget struct {
	ID       uuid.UUID       `json:"id"`
	BudgetID uuid.UUID       `json:"budget_id"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

// BudgetDetail is the read model returned for a trip's budget page.
type BudgetDetail struct {
	Budget
	Remaining decimal.Decimal `json:"remaining"`
	Planned   []PlannedBudget `json:"planned"`
	Expenses  []Expense       `json:"expenses"`
}

// SumPlanned adds up the amounts of the given entries.
func SumPlanned(entries []PlannedBudget) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return wrapValidation("amount must be greater than zero")
	}
	return nil
}

// ValidateCategory rejects a blank category.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return wrapValidation("category is required")
	}
	return nil
}
