package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// ItineraryService manages the dated items of a trip's plan.
type ItineraryService struct {
	tx  Transactor
	log *slog.Logger
}

// NewItineraryService constructs an ItineraryService.
func NewItineraryService(tx Transactor, log *slog.Logger) *ItineraryService {
	return &ItineraryService{tx: tx, log: log.With("service", "ItineraryService")}
}

// Add validates and persists a new item on the trip.
// Returns domain.ErrValidation if input violates business rules.
func (s *ItineraryService) Add(ctx context.Context, actor, tripID uuid.UUID, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	item.TripID = tripID
	item.Title = strings.TrimSpace(item.Title)
	if item.Time != nil && *item.Time == "" {
		item.Time = nil
	}
	if err := validateItineraryItem(item); err != nil {
		return domain.ItineraryItem{}, err
	}

	var created domain.ItineraryItem
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		var err error
		created, err = r.Itinerary.Create(ctx, item)
		return err
	})
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Add: %w", err)
	}
	return created, nil
}

// List returns the trip's items ordered by date and time.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItineraryService) List(ctx context.Context, actor, tripID uuid.UUID) ([]domain.ItineraryItem, error) {
	var items []domain.ItineraryItem
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		var err error
		items, err = r.Itinerary.ListByTrip(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryService.List: %w", err)
	}
	if items == nil {
		return []domain.ItineraryItem{}, nil
	}
	return items, nil
}

// Update applies a partial patch to an item of the trip.
func (s *ItineraryService) Update(ctx context.Context, actor, tripID, itemID uuid.UUID, patch domain.ItineraryPatch) (domain.ItineraryItem, error) {
	if err := validateClock(patch.Time); err != nil {
		return domain.ItineraryItem{}, err
	}
	var updated domain.ItineraryItem
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		item, err := r.Itinerary.GetByID(ctx, tripID, itemID)
		if err != nil {
			return err
		}
		next := patch.Apply(item)
		if err := validateItineraryItem(next); err != nil {
			return err
		}
		updated, err = r.Itinerary.Update(ctx, next)
		return err
	})
	if err != nil {
		return domain.ItineraryItem{}, fmt.Errorf("service.ItineraryService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes an item of the trip.
// Returns domain.ErrNotFound if the item does not belong to the trip.
func (s *ItineraryService) Delete(ctx context.Context, actor, tripID, itemID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		return r.Itinerary.Delete(ctx, tripID, itemID)
	})
	if err != nil {
		return fmt.Errorf("service.ItineraryService.Delete: %w", err)
	}
	return nil
}

// validateItineraryItem enforces the rules shared by Add and Update.
//   - Title must be non-empty.
//   - Date is required.
//   - Time, if set, must be HH:MM.
func validateItineraryItem(item domain.ItineraryItem) error {
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if item.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	return validateClock(item.Time)
}
