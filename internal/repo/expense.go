package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// ExpenseRepo defines the persistence operations for Expenses and the
// expense_shared_users join table.
type ExpenseRepo interface {
	// Create inserts the expense together with its shared users and returns
	// the persisted record.
	Create(ctx context.Context, e domain.Expense) (domain.Expense, error)

	// GetByID returns domain.ErrNotFound if no expense with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Expense, error)

	// ListByBudget returns a budget's expenses in insertion order.
	ListByBudget(ctx context.Context, budgetID uuid.UUID) ([]domain.Expense, error)

	// Update overwrites amount, description, category, status and pending_with.
	// Shared users are changed through SetSharedUsers / RemoveSharedUser.
	Update(ctx context.Context, e domain.Expense) (domain.Expense, error)

	// SetSharedUsers replaces the stakeholder set of an expense.
	SetSharedUsers(ctx context.Context, expenseID uuid.UUID, userIDs []uuid.UUID) error

	// RemoveSharedUser unlinks one stakeholder.
	// Returns domain.ErrNotFound if the user is not a stakeholder.
	RemoveSharedUser(ctx context.Context, expenseID, userID uuid.UUID) error

	// Delete removes an expense and its stakeholder links.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByBudget removes every expense of a budget and their stakeholder links.
	DeleteByBudget(ctx context.Context, budgetID uuid.UUID) error
}

type pgExpenseRepo struct {
	db db
}

// NewExpenseRepo constructs an ExpenseRepo backed by the provided db connection.
func NewExpenseRepo(db db) ExpenseRepo {
	return &pgExpenseRepo{db: db}
}

// expenseSelect reads an expense with its shared users aggregated into one row.
const expenseSelect = `
	SELECT e.id, e.budget_id, e.created_by, e.amount::text, e.description, e.category,
	       e.status, e.pending_with,
	       ARRAY(SELECT su.user_id FROM expense_shared_users su
	             WHERE su.expense_id = e.id ORDER BY su.user_id) AS shared_with
	FROM expenses e`

func (r *pgExpenseRepo) Create(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	const q = `
		INSERT INTO expenses (budget_id, created_by, amount, description, category, status, pending_with)
		VALUES (@budget_id, @created_by, @amount::text::numeric, @description, @category, @status, @pending_with)
		RETURNING id`

	var id pgtype.UUID
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"budget_id":    e.BudgetID,
		"created_by":   e.CreatedBy,
		"amount":       e.Amount.String(),
		"description":  e.Description,
		"category":     e.Category,
		"status":       string(e.Status),
		"pending_with": fromUUIDs(e.PendingWith),
	}).Scan(&id)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.Create: %w", err)
	}

	expenseID := uuid.UUID(id.Bytes)
	if err := r.SetSharedUsers(ctx, expenseID, e.SharedWith); err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.Create: %w", err)
	}
	return r.GetByID(ctx, expenseID)
}

func (r *pgExpenseRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Expense, error) {
	const q = expenseSelect + ` WHERE e.id = @id`

	result, err := scanExpense(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgExpenseRepo) ListByBudget(ctx context.Context, budgetID uuid.UUID) ([]domain.Expense, error) {
	const q = expenseSelect + ` WHERE e.budget_id = @budget_id ORDER BY e.position`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"budget_id": budgetID})
	if err != nil {
		return nil, fmt.Errorf("repo.ExpenseRepo.ListByBudget: %w", err)
	}
	defer rows.Close()

	out := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ExpenseRepo.ListByBudget: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ExpenseRepo.ListByBudget: rows: %w", err)
	}
	return out, nil
}

func (r *pgExpenseRepo) Update(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	const q = `
		UPDATE expenses
		SET amount       = @amount::text::numeric,
		    description  = @description,
		    category     = @category,
		    status       = @status,
		    pending_with = @pending_with
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           e.ID,
		"amount":       e.Amount.String(),
		"description":  e.Description,
		"category":     e.Category,
		"status":       string(e.Status),
		"pending_with": fromUUIDs(e.PendingWith),
	})
	if err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.Update: %w", domain.ErrNotFound)
	}
	return r.GetByID(ctx, e.ID)
}

func (r *pgExpenseRepo) SetSharedUsers(ctx context.Context, expenseID uuid.UUID, userIDs []uuid.UUID) error {
	const del = `DELETE FROM expense_shared_users WHERE expense_id = @expense_id`
	const ins = `
		INSERT INTO expense_shared_users (expense_id, user_id)
		SELECT @expense_id, u FROM unnest(@user_ids::uuid[]) AS u
		ON CONFLICT DO NOTHING`

	args := pgx.NamedArgs{"expense_id": expenseID, "user_ids": fromUUIDs(userIDs)}
	if _, err := r.db.Exec(ctx, del, args); err != nil {
		return fmt.Errorf("repo.ExpenseRepo.SetSharedUsers: delete: %w", err)
	}
	if _, err := r.db.Exec(ctx, ins, args); err != nil {
		return fmt.Errorf("repo.ExpenseRepo.SetSharedUsers: insert: %w", err)
	}
	return nil
}

func (r *pgExpenseRepo) RemoveSharedUser(ctx context.Context, expenseID, userID uuid.UUID) error {
	const q = `DELETE FROM expense_shared_users WHERE expense_id = @expense_id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"expense_id": expenseID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ExpenseRepo.RemoveSharedUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ExpenseRepo.RemoveSharedUser: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgExpenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const links = `DELETE FROM expense_shared_users WHERE expense_id = @id`
	const q = `DELETE FROM expenses WHERE id = @id`

	if _, err := r.db.Exec(ctx, links, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.ExpenseRepo.Delete: shared users: %w", err)
	}
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ExpenseRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ExpenseRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgExpenseRepo) DeleteByBudget(ctx context.Context, budgetID uuid.UUID) error {
	const links = `
		DELETE FROM expense_shared_users
		WHERE expense_id IN (SELECT id FROM expenses WHERE budget_id = @budget_id)`
	const q = `DELETE FROM expenses WHERE budget_id = @budget_id`

	args := pgx.NamedArgs{"budget_id": budgetID}
	if _, err := r.db.Exec(ctx, links, args); err != nil {
		return fmt.Errorf("repo.ExpenseRepo.DeleteByBudget: shared users: %w", err)
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.ExpenseRepo.DeleteByBudget: %w", err)
	}
	return nil
}

func scanExpense(s scanner) (domain.Expense, error) {
	var (
		e                       domain.Expense
		id, budgetID, createdBy pgtype.UUID
		amount, status          string
		pending, shared         []pgtype.UUID
	)
	err := s.Scan(&id, &budgetID, &createdBy, &amount, &e.Description, &e.Category, &status, &pending, &shared)
	if err != nil {
		return domain.Expense{}, notFound(err)
	}
	if e.Amount, err = parseDecimal(amount); err != nil {
		return domain.Expense{}, fmt.Errorf("amount: %w", err)
	}
	e.ID = uuid.UUID(id.Bytes)
	e.BudgetID = uuid.UUID(budgetID.Bytes)
	e.CreatedBy = uuid.UUID(createdBy.Bytes)
	e.Status = domain.ExpenseStatus(status)
	e.PendingWith = toUUIDs(pending)
	e.SharedWith = toUUIDs(shared)
	return e, nil
}
