// Package service contains the business logic for the JetSetGo API.
// Services validate inputs, enforce authorization and invariants, and
// orchestrate repo calls. No SQL lives here: every mutation runs through
// Transactor.InTx against the repo interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// Transactor runs fn inside a single database transaction. *repo.Store
// implements it; tests use an in-memory fake.
type Transactor interface {
	InTx(ctx context.Context, fn func(r repo.Repos) error) error
}

// Mailer delivers a plain-text email. Callers log failures and move on.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// requireParticipant loads the trip and checks that userID is one of its
// participants. It returns domain.ErrNotFound for an unknown trip and
// domain.ErrForbidden for a non-participant.
func requireParticipant(ctx context.Context, r repo.Repos, tripID, userID uuid.UUID) (domain.Trip, error) {
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, err
	}
	ok, err := r.Participants.IsParticipant(ctx, tripID, userID)
	if err != nil {
		return domain.Trip{}, err
	}
	if !ok {
		return domain.Trip{}, fmt.Errorf("%w: not a participant of this trip", domain.ErrForbidden)
	}
	return trip, nil
}

// validateTrip enforces the rules shared by create and update.
//   - Title must be non-empty.
//   - Both dates are required and end_date must not be before start_date.
func validateTrip(t domain.Trip) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	return nil
}

// validateClock accepts nil, empty, or an "HH:MM" wall-clock time.
func validateClock(v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := time.Parse(domain.ClockLayout, *v); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", domain.ErrValidation)
	}
	return nil
}

// budgetOf returns the trip's budget and whether it exists.
func budgetOf(ctx context.Context, r repo.Repos, tripID uuid.UUID) (domain.Budget, bool, error) {
	b, err := r.Budgets.GetByTripID(ctx, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Budget{}, false, nil
	}
	if err != nil {
		return domain.Budget{}, false, err
	}
	return b, true, nil
}
