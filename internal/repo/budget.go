package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// BudgetRepo defines the persistence operations for Budgets.
type BudgetRepo interface {
	// Init creates the budget of a trip if it does not exist yet and returns
	// it either way. Idempotent.
	Init(ctx context.Context, tripID uuid.UUID) (domain.Budget, error)

	// GetByTripID returns domain.ErrNotFound when the trip has no budget yet.
	GetByTripID(ctx context.Context, tripID uuid.UUID) (domain.Budget, error)

	// LockByID returns the budget and locks its row until the transaction
	// ends. Every mutation of planned entries or expenses takes this lock
	// first, so RecomputeTotals always sees the committed children.
	LockByID(ctx context.Context, id uuid.UUID) (domain.Budget, error)

	// RecomputeTotals sets total_planned and total_spent to the sums of the
	// budget's planned entries and expenses, and returns the updated budget.
	RecomputeTotals(ctx context.Context, id uuid.UUID) (domain.Budget, error)

	// Delete removes a budget. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgBudgetRepo struct {
	db db
}

// NewBudgetRepo constructs a BudgetRepo backed by the provided db connection.
func NewBudgetRepo(db db) BudgetRepo {
	return &pgBudgetRepo{db: db}
}

const budgetColumns = `id, trip_id, total_planned::text, total_spent::text`

// Init inserts the trip's budget or returns the existing row on trip_id conflict.
// The DO UPDATE SET trick forces the RETURNING clause to fire even when
// the conflict handler skips the insert.
func (r *pgBudgetRepo) Init(ctx context.Context, tripID uuid.UUID) (domain.Budget, error) {
	const q = `
		INSERT INTO budgets (trip_id)
		VALUES (@trip_id)
		ON CONFLICT (trip_id) DO UPDATE SET trip_id = EXCLUDED.trip_id
		RETURNING ` + budgetColumns

	result, err := scanBudget(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}))
	if err != nil {
		return domain.Budget{}, fmt.Errorf("repo.BudgetRepo.Init: %w", err)
	}
	return result, nil
}

func (r *pgBudgetRepo) GetByTripID(ctx context.Context, tripID uuid.UUID) (domain.Budget, error) {
	const q = `SELECT ` + budgetColumns + ` FROM budgets WHERE trip_id = @trip_id`

	result, err := scanBudget(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}))
	if err != nil {
		return domain.Budget{}, fmt.Errorf("repo.BudgetRepo.GetByTripID: %w", err)
	}
	return result, nil
}

func (r *pgBudgetRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.Budget, error) {
	const q = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = @id FOR UPDATE`

	result, err := scanBudget(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Budget{}, fmt.Errorf("repo.BudgetRepo.LockByID: %w", err)
	}
	return result, nil
}

func (r *pgBudgetRepo) RecomputeTotals(ctx context.Context, id uuid.UUID) (domain.Budget, error) {
	const q = `
		UPDATE budgets b
		SET total_planned = COALESCE((SELECT sum(amount) FROM planned_budgets WHERE budget_id = b.id), 0),
		    total_spent   = COALESCE((SELECT sum(amount) FROM expenses WHERE budget_id = b.id), 0)
		WHERE b.id = @id
		RETURNING b.id, b.trip_id, b.total_planned::text, b.total_spent::text`

	result, err := scanBudget(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Budget{}, fmt.Errorf("repo.BudgetRepo.RecomputeTotals: %w", err)
	}
	return result, nil
}

func (r *pgBudgetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM budgets WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.BudgetRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BudgetRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanBudget(s scanner) (domain.Budget, error) {
	var (
		b              domain.Budget
		id, tripID     pgtype.UUID
		planned, spent string
	)
	if err := s.Scan(&id, &tripID, &planned, &spent); err != nil {
		return domain.Budget{}, notFound(err)
	}
	var err error
	if b.TotalPlanned, err = parseDecimal(planned); err != nil {
		return domain.Budget{}, fmt.Errorf("total_planned: %w", err)
	}
	if b.TotalSpent, err = parseDecimal(spent); err != nil {
		return domain.Budget{}, fmt.Errorf("total_spent: %w", err)
	}
	b.ID = uuid.UUID(id.Bytes)
	b.TripID = uuid.UUID(tripID.Bytes)
	return b, nil
}
