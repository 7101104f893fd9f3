package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/repo"
)

// deleteTripCascade removes a trip and everything it owns, children first:
// notifications about the trip or its expenses, expenses, planned entries,
// the budget, itinerary, destinations, reviews, participants, and finally
// the trip. It must run inside the caller's transaction.
func deleteTripCascade(ctx context.Context, r repo.Repos, tripID uuid.UUID) error {
	subjects := []uuid.UUID{tripID}

	budget, ok, err := budgetOf(ctx, r, tripID)
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}
	if ok {
		expenses, err := r.Expenses.ListByBudget(ctx, budget.ID)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		for _, e := range expenses {
			subjects = append(subjects, e.ID)
		}
	}

	if err := r.Notifications.DeleteBySubjects(ctx, subjects); err != nil {
		return err
	}
	if ok {
		if err := r.Expenses.DeleteByBudget(ctx, budget.ID); err != nil {
			return err
		}
		if err := r.Planned.DeleteByBudget(ctx, budget.ID); err != nil {
			return err
		}
		if err := r.Budgets.Delete(ctx, budget.ID); err != nil {
			return err
		}
	}
	if err := r.Itinerary.DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	if err := r.Destinations.DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	if err := r.Reviews.DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	if err := r.Participants.DeleteByTrip(ctx, tripID); err != nil {
		return err
	}
	return r.Trips.Delete(ctx, tripID)
}

// leaveTrip removes userID from the trip under a row lock on the trip and
// dissolves the trip when nobody is left. It reports whether the trip was
// deleted.
func leaveTrip(ctx context.Context, r repo.Repos, tripID, userID uuid.UUID) (bool, error) {
	if _, err := r.Trips.LockByID(ctx, tripID); err != nil {
		return false, err
	}
	if err := r.Participants.Remove(ctx, tripID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("%w: not a participant of this trip", domain.ErrForbidden)
		}
		return false, err
	}
	n, err := r.Participants.Count(ctx, tripID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := deleteTripCascade(ctx, r, tripID); err != nil {
		return false, err
	}
	return true, nil
}

// loadTripDetail assembles the read model for one trip.
func loadTripDetail(ctx context.Context, r repo.Repos, trip domain.Trip) (domain.TripDetail, error) {
	d := domain.TripDetail{Trip: trip}

	var err error
	if d.Destinations, err = r.Destinations.ListByTrip(ctx, trip.ID); err != nil {
		return domain.TripDetail{}, err
	}
	ids, err := r.Participants.ListUserIDs(ctx, trip.ID)
	if err != nil {
		return domain.TripDetail{}, err
	}
	if d.Participants, err = r.Users.ListByIDs(ctx, ids); err != nil {
		return domain.TripDetail{}, err
	}
	if d.Itinerary, err = r.Itinerary.ListByTrip(ctx, trip.ID); err != nil {
		return domain.TripDetail{}, err
	}
	budget, ok, err := budgetOf(ctx, r, trip.ID)
	if err != nil {
		return domain.TripDetail{}, err
	}
	if ok {
		d.Budget = &budget
	}
	return d, nil
}
