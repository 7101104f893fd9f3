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

// ReviewService lets participants rate a trip once each.
type ReviewService struct {
	tx  Transactor
	log *slog.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(tx Transactor, log *slog.Logger) *ReviewService {
	return &ReviewService{tx: tx, log: log.With("service", "ReviewService")}
}

// Add records the actor's review. Returns domain.ErrConflict on a second review.
func (s *ReviewService) Add(ctx context.Context, actor, tripID uuid.UUID, rating int, comment string) (domain.Review, error) {
	if err := domain.ValidateRating(rating); err != nil {
		return domain.Review{}, err
	}
	var rv domain.Review
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		var err error
		rv, err = r.Reviews.Create(ctx, domain.Review{
			TripID:  tripID,
			UserID:  actor,
			Rating:  rating,
			Comment: strings.TrimSpace(comment),
		})
		return err
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("service.ReviewService.Add: %w", err)
	}
	return rv, nil
}

// List returns the trip's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, actor, tripID uuid.UUID) ([]domain.Review, error) {
	var list []domain.Review
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		var err error
		list, err = r.Reviews.ListByTrip(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.ReviewService.List: %w", err)
	}
	return list, nil
}
