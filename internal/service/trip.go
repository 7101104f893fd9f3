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

// TripService implements the trip aggregate: creation, patching, membership
// and cascading deletion.
type TripService struct {
	tx      Transactor
	mailer  Mailer
	popular PopularCache
	log     *slog.Logger
	baseURL string
}

// NewTripService constructs a TripService. popular may be nil; when set it is
// invalidated whenever a trip destination is favorited. baseURL is used to
// build links in invitation emails.
func NewTripService(tx Transactor, mailer Mailer, popular PopularCache, log *slog.Logger, baseURL string) *TripService {
	return &TripService{
		tx:      tx,
		mailer:  mailer,
		popular: popular,
		log:     log.With("service", "TripService"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Create persists the trip, its destinations and the creator's membership as
// one unit. A trip is never visible without its creator as participant.
func (s *TripService) Create(ctx context.Context, actor uuid.UUID, in domain.NewTrip) (domain.TripDetail, error) {
	trip := domain.Trip{
		Title:       strings.TrimSpace(in.Title),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Description: in.Description,
	}
	if err := validateTrip(trip); err != nil {
		return domain.TripDetail{}, err
	}

	var detail domain.TripDetail
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		created, err := r.Trips.Create(ctx, trip)
		if err != nil {
			return err
		}
		if _, err := r.Participants.Add(ctx, created.ID, actor); err != nil {
			return err
		}
		for _, name := range domain.SplitDestinations(in.Destinations) {
			if _, err := r.Destinations.Add(ctx, created.ID, name); err != nil {
				return err
			}
		}
		detail, err = loadTripDetail(ctx, r, created)
		return err
	})
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return detail, nil
}

// Get returns the trip with everything it owns.
func (s *TripService) Get(ctx context.Context, actor, tripID uuid.UUID) (domain.TripDetail, error) {
	var detail domain.TripDetail
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		trip, err := requireParticipant(ctx, r, tripID, actor)
		if err != nil {
			return err
		}
		detail, err = loadTripDetail(ctx, r, trip)
		return err
	})
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return detail, nil
}

// List returns one page of the actor's trips and the total count.
func (s *TripService) List(ctx context.Context, actor uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	var (
		trips []domain.Trip
		total int64
	)
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		trips, total, err = r.Trips.ListByParticipant(ctx, actor, p)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

// Update applies a partial patch. A non-empty destination list replaces the
// destination set wholesale.
func (s *TripService) Update(ctx context.Context, actor, tripID uuid.UUID, patch domain.TripPatch) (domain.TripDetail, error) {
	var detail domain.TripDetail
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		trip, err := requireParticipant(ctx, r, tripID, actor)
		if err != nil {
			return err
		}
		next := patch.Apply(trip)
		if err := validateTrip(next); err != nil {
			return err
		}
		updated, err := r.Trips.Update(ctx, next)
		if err != nil {
			return err
		}
		if names := domain.SplitDestinations(patch.Destinations); len(names) > 0 {
			if err := r.Destinations.DeleteByTrip(ctx, tripID); err != nil {
				return err
			}
			for _, name := range names {
				if _, err := r.Destinations.Add(ctx, tripID, name); err != nil {
					return err
				}
			}
		}
		detail, err = loadTripDetail(ctx, r, updated)
		return err
	})
	if err != nil {
		return domain.TripDetail{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return detail, nil
}

// Share adds the user named username as a participant. Sharing with an
// existing participant is a no-op.
func (s *TripService) Share(ctx context.Context, actor, tripID uuid.UUID, username string) error {
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		user, err := r.Users.GetByUsername(ctx, strings.TrimSpace(username))
		if err != nil {
			return err
		}
		return shareTrip(ctx, r, tripID, user.ID)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.Share: %w", err)
	}
	return nil
}

// shareTrip adds userID to the trip under the trip's row lock.
func shareTrip(ctx context.Context, r repo.Repos, tripID, userID uuid.UUID) error {
	if _, err := r.Trips.LockByID(ctx, tripID); err != nil {
		return err
	}
	_, err := r.Participants.Add(ctx, tripID, userID)
	return err
}

// Invite asks the user named username to join the trip. The receiver joins
// only after accepting the notification. An email is sent after commit.
func (s *TripService) Invite(ctx context.Context, actor, tripID uuid.UUID, username, message string) (domain.Notification, error) {
	var (
		n        domain.Notification
		receiver domain.User
		trip     domain.Trip
	)
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		if trip, err = requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		if receiver, err = r.Users.GetByUsername(ctx, strings.TrimSpace(username)); err != nil {
			return err
		}
		already, err := r.Participants.IsParticipant(ctx, tripID, receiver.ID)
		if err != nil {
			return err
		}
		if already {
			return fmt.Errorf("%w: %s already participates in this trip", domain.ErrConflict, receiver.Username)
		}
		sender, err := r.Users.GetByID(ctx, actor)
		if err != nil {
			return err
		}
		if strings.TrimSpace(message) == "" {
			message = fmt.Sprintf("%s invited you to the trip %q.", sender.Username, trip.Title)
		}
		n, err = r.Notifications.Create(ctx, domain.Notification{
			Kind:       domain.NotifyTripShare,
			SenderID:   actor,
			ReceiverID: receiver.ID,
			SubjectID:  tripID,
			Message:    message,
			Status:     domain.NotificationPending,
		})
		return err
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("service.TripService.Invite: %w", err)
	}

	body := fmt.Sprintf("%s\n\nRespond here: %s/notifications\n", n.Message, s.baseURL)
	if err := s.mailer.Send(ctx, receiver.Email, "Trip invitation: "+trip.Title, body); err != nil {
		s.log.WarnContext(ctx, "invitation email failed",
			slog.String("trip_id", tripID.String()),
			slog.String("receiver_id", receiver.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return n, nil
}

// RemoveParticipant removes userID from the trip. Only the user themself may
// do this. When the last participant leaves the trip is deleted with
// everything it owns; the returned flag reports that.
func (s *TripService) RemoveParticipant(ctx context.Context, actor, tripID, userID uuid.UUID) (bool, error) {
	if actor != userID {
		return false, fmt.Errorf("service.TripService.RemoveParticipant: %w: participants can only remove themselves", domain.ErrForbidden)
	}
	var dissolved bool
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		dissolved, err = leaveTrip(ctx, r, tripID, userID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("service.TripService.RemoveParticipant: %w", err)
	}
	if dissolved {
		s.log.InfoContext(ctx, "trip dissolved after last participant left", slog.String("trip_id", tripID.String()))
	}
	return dissolved, nil
}

// LeaveAllTrips re-checks the actor's password and then removes them from
// every trip they belong to, dissolving trips left empty. It returns the
// number of trips left and the number dissolved.
func (s *TripService) LeaveAllTrips(ctx context.Context, actor uuid.UUID, password string) (left, dissolved int, err error) {
	err = s.tx.InTx(ctx, func(r repo.Repos) error {
		left, dissolved = 0, 0
		user, err := r.Users.GetByID(ctx, actor)
		if err != nil {
			return err
		}
		if err := checkPassword(user.PasswordHash, password); err != nil {
			return err
		}
		ids, err := r.Trips.ListIDsByParticipant(ctx, actor)
		if err != nil {
			return err
		}
		for _, id := range ids {
			gone, err := leaveTrip(ctx, r, id, actor)
			if err != nil {
				return fmt.Errorf("trip %s: %w", id, err)
			}
			left++
			if gone {
				dissolved++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("service.TripService.LeaveAllTrips: %w", err)
	}
	s.log.InfoContext(ctx, "user left all trips",
		slog.String("user_id", actor.String()),
		slog.Int("left", left),
		slog.Int("dissolved", dissolved),
	)
	return left, dissolved, nil
}

// Delete removes the trip and everything it owns in one transaction.
func (s *TripService) Delete(ctx context.Context, actor, tripID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := r.Trips.LockByID(ctx, tripID); err != nil {
			return err
		}
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		return deleteTripCascade(ctx, r, tripID)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	s.log.InfoContext(ctx, "trip deleted", slog.String("trip_id", tripID.String()))
	return nil
}

// AddDestination appends a destination to the trip.
func (s *TripService) AddDestination(ctx context.Context, actor, tripID uuid.UUID, name string) (domain.TripDestination, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.TripDestination{}, fmt.Errorf("%w: destination name is required", domain.ErrValidation)
	}
	var d domain.TripDestination
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		var err error
		d, err = r.Destinations.Add(ctx, tripID, name)
		return err
	})
	if err != nil {
		return domain.TripDestination{}, fmt.Errorf("service.TripService.AddDestination: %w", err)
	}
	return d, nil
}

// FavoriteDestination flags a trip destination as favorited and adds its
// name to the actor's favorites in the catalog, in one transaction.
func (s *TripService) FavoriteDestination(ctx context.Context, actor, tripID, destinationID uuid.UUID) (domain.TripDestination, error) {
	var (
		d     domain.TripDestination
		added bool
	)
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		if _, err := requireParticipant(ctx, r, tripID, actor); err != nil {
			return err
		}
		var err error
		if d, err = r.Destinations.SetFavorited(ctx, tripID, destinationID, true); err != nil {
			return err
		}
		_, added, err = addFavorite(ctx, r, actor, domain.NewFavorite{Name: d.Name})
		return err
	})
	if err != nil {
		return domain.TripDestination{}, fmt.Errorf("service.TripService.FavoriteDestination: %w", err)
	}
	if added {
		invalidatePopular(ctx, s.popular, s.log)
	}
	return d, nil
}
