package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// ExportService assembles a flat export of a trip's budget.
type ExportService struct {
	tx Transactor
}

// NewExportService constructs an ExportService.
func NewExportService(tx Transactor) *ExportService {
	return &ExportService{tx: tx}
}

// ExportBudget returns one ExportRow per planned entry followed by one per
// expense. A trip without a budget yields an empty, non-nil slice.
func (s *ExportService) ExportBudget(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ExportRow, error) {
	rows := []domain.ExportRow{}
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		trip, err := requireParticipant(ctx, r, tripID, actor)
		if err != nil {
			return err
		}
		b, ok, err := budgetOf(ctx, r, tripID)
		if err != nil || !ok {
			return err
		}

		planned, err := r.Planned.ListByBudget(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, pb := range planned {
			rows = append(rows, domain.ExportRow{
				TripID:     trip.ID.String(),
				TripTitle:  trip.Title,
				Kind:       domain.ExportKindPlanned,
				Category:   pb.Category,
				Amount:     pb.Amount.StringFixed(2),
				SharedWith: []string{},
			})
		}

		expenses, err := r.Expenses.ListByBudget(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, e := range expenses {
			users, err := r.Users.ListByIDs(ctx, e.SharedWith)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Username)
			}
			rows = append(rows, domain.ExportRow{
				TripID:      trip.ID.String(),
				TripTitle:   trip.Title,
				Kind:        domain.ExportKindExpense,
				Category:    e.Category,
				Amount:      e.Amount.StringFixed(2),
				Description: e.Description,
				Status:      string(e.Status),
				SharedWith:  names,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.ExportBudget: %w", err)
	}
	return rows, nil
}
