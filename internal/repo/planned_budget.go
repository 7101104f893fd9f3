package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// PlannedBudgetRepo defines the persistence operations for planned budget entries.
type PlannedBudgetRepo interface {
	Create(ctx context.Context, pb domain.PlannedBudget) (domain.PlannedBudget, error)

	// GetByID returns domain.ErrNotFound if no entry with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.PlannedBudget, error)

	// ListByBudget returns a budget's entries in insertion order.
	ListByBudget(ctx context.Context, budgetID uuid.UUID) ([]domain.PlannedBudget, error)

	// Update overwrites amount and category.
	Update(ctx context.Context, pb domain.PlannedBudget) (domain.PlannedBudget, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByBudget removes every entry of a budget.
	DeleteByBudget(ctx context.Context, budgetID uuid.UUID) error
}

type pgPlannedBudgetRepo struct {
	db db
}

// NewPlannedBudgetRepo constructs a PlannedBudgetRepo backed by the provided db connection.
func NewPlannedBudgetRepo(db db) PlannedBudgetRepo {
	return &pgPlannedBudgetRepo{db: db}
}

const plannedColumns = `id, budget_id, amount::text, category`

func (r *pgPlannedBudgetRepo) Create(ctx context.Context, pb domain.PlannedBudget) (domain.PlannedBudget, error) {
	const q = `
		INSERT INTO planned_budgets (budget_id, amount, category)
		VALUES (@budget_id, @amount::text::numeric, @category)
		RETURNING ` + plannedColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"budget_id": pb.BudgetID,
		"amount":    pb.Amount.String(),
		"category":  pb.Category,
	})
	result, err := scanPlanned(row)
	if err != nil {
		return domain.PlannedBudget{}, fmt.Errorf("repo.PlannedBudgetRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgPlannedBudgetRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.PlannedBudget, error) {
	const q = `SELECT ` + plannedColumns + ` FROM planned_budgets WHERE id = @id`

	result, err := scanPlanned(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.PlannedBudget{}, fmt.Errorf("repo.PlannedBudgetRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgPlannedBudgetRepo) ListByBudget(ctx context.Context, budgetID uuid.UUID) ([]domain.PlannedBudget, error) {
	const q = `
		SELECT ` + plannedColumns + `
		FROM planned_budgets
		WHERE budget_id = @budget_id
		ORDER BY position`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"budget_id": budgetID})
	if err != nil {
		return nil, fmt.Errorf("repo.PlannedBudgetRepo.ListByBudget: %w", err)
	}
	defer rows.Close()

	out := []domain.PlannedBudget{}
	for rows.Next() {
		pb, err := scanPlanned(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PlannedBudgetRepo.ListByBudget: scan: %w", err)
		}
		out = append(out, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PlannedBudgetRepo.ListByBudget: rows: %w", err)
	}
	return out, nil
}

func (r *pgPlannedBudgetRepo) Update(ctx context.Context, pb domain.PlannedBudget) (domain.PlannedBudget, error) {
	const q = `
		UPDATE planned_budgets
		SET amount   = @amount::text::numeric,
		    category = @category
		WHERE id = @id
		RETURNING ` + plannedColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":       pb.ID,
		"amount":   pb.Amount.String(),
		"category": pb.Category,
	})
	result, err := scanPlanned(row)
	if err != nil {
		return domain.PlannedBudget{}, fmt.Errorf("repo.PlannedBudgetRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgPlannedBudgetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM planned_budgets WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.PlannedBudgetRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.PlannedBudgetRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgPlannedBudgetRepo) DeleteByBudget(ctx context.Context, budgetID uuid.UUID) error {
	const q = `DELETE FROM planned_budgets WHERE budget_id = @budget_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"budget_id": budgetID}); err != nil {
		return fmt.Errorf("repo.PlannedBudgetRepo.DeleteByBudget: %w", err)
	}
	return nil
}

func scanPlanned(s scanner) (domain.PlannedBudget, error) {
	var (
		pb           domain.PlannedBudget
		id, budgetID pgtype.UUID
		amount       string
	)
	if err := s.Scan(&id, &budgetID, &amount, &pb.Category); err != nil {
		return domain.PlannedBudget{}, notFound(err)
	}
	var err error
	if pb.Amount, err = parseDecimal(amount); err != nil {
		return domain.PlannedBudget{}, fmt.Errorf("amount: %w", err)
	}
	pb.ID = uuid.UUID(id.Bytes)
	pb.BudgetID = uuid.UUID(budgetID.Bytes)
	return pb, nil
}
