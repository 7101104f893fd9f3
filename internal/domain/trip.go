// Package domain contains the core data types for the JetSetGo trip planner.
// This package depends only on uuid and decimal and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Trip is the aggregate root of the planner. It owns its destinations,
// itinerary items and (lazily) one budget. There is no owner column: the
// participants relation decides who may see and edit it.
type Trip struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TripDestination is a named place owned by exactly one trip.
type TripDestination struct {
	ID          uuid.UUID `json:"id"`
	TripID      uuid.UUID `json:"trip_id"`
	Name        string    `json:"name"`
	IsFavorited bool      `json:"is_favorited"`
}

// NewTrip carries the fields needed to create a trip.
// Destinations may contain comma-separated entries; see SplitDestinations.
type NewTrip struct {
	Title        string
	Destinations []string
	StartDate    time.Time
	EndDate      time.Time
	Description  string
}

// TripPatch is a partial update. Nil pointers, an empty title and an empty
// destination list leave the stored value unchanged. A non-empty destination
// list replaces the whole destination set. Description is applied whenever it
// is non-nil, so it can be cleared.
type TripPatch struct {
	Title        string
	Destinations []string
	StartDate    *time.Time
	EndDate      *time.Time
	Description  *string
}

// Apply returns a copy of t with the patch applied. Destinations are not part
// of Trip and are handled by the caller.
func (p TripPatch) Apply(t Trip) Trip {
	if strings.TrimSpace(p.Title) != "" {
		t.Title = strings.TrimSpace(p.Title)
	}
	if p.StartDate != nil && !p.StartDate.IsZero() {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil && !p.EndDate.IsZero() {
		t.EndDate = *p.EndDate
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	return t
}

// TripDetail is the read model for a single trip with everything it owns.
// Budget is nil until the budget has been initialised.
type TripDetail struct {
	Trip
	Destinations []TripDestination `json:"destinations"`
	Participants []User            `json:"participants"`
	Itinerary    []ItineraryItem   `json:"itinerary"`
	Budget       *Budget           `json:"budget,omitempty"`
}

// SplitDestinations splits every entry on commas, trims whitespace and drops
// blanks, preserving order. It returns a non-nil slice.
func SplitDestinations(entries []string) []string {
	out := []string{}
	for _, e := range entries {
		for _, part := range strings.Split(e, ",") {
			if name := strings.TrimSpace(part); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
