package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// SharePolicy decides which users an expense may be shared with.
// requested holds the usernames the caller asked for, found the users those
// names resolved to, and participants the trip's participant IDs.
// It returns the IDs to share with, in the order of found.
type SharePolicy func(requested []string, found []domain.User, participants []uuid.UUID) ([]uuid.UUID, error)

// NarrowToParticipants silently drops unknown usernames and users who are
// not participants of the trip. It is the default policy.
func NarrowToParticipants(_ []string, found []domain.User, participants []uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	for _, u := range found {
		if slices.Contains(participants, u.ID) {
			out = append(out, u.ID)
		}
	}
	return out, nil
}

// StrictSharePolicy rejects the whole request with domain.ErrValidation if
// any username is unknown or belongs to a non-participant.
func StrictSharePolicy(requested []string, found []domain.User, participants []uuid.UUID) ([]uuid.UUID, error) {
	byName := make(map[string]domain.User, len(found))
	for _, u := range found {
		byName[u.Username] = u
	}
	var rejected []string
	for _, name := range requested {
		u, ok := byName[name]
		if !ok || !slices.Contains(participants, u.ID) {
			rejected = append(rejected, name)
		}
	}
	if len(rejected) > 0 {
		return nil, fmt.Errorf("%w: not trip participants: %s", domain.ErrValidation, strings.Join(rejected, ", "))
	}
	return NarrowToParticipants(requested, found, participants)
}

// cleanUsernames trims, drops blanks and removes duplicates, keeping order.
func cleanUsernames(names []string) []string {
	out := []string{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
