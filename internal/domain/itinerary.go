package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClockLayout is the wire and storage format of ItineraryItem.Time.
const ClockLayout = "15:04"

// ItineraryItem is a dated entry in a trip's plan. Time, when set, is a
// wall-clock time in ClockLayout.
type ItineraryItem struct {
	ID       uuid.UUID `json:"id"`
	TripID   uuid.UUID `json:"trip_id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Time     *string   `json:"time,omitempty"`
	Location string    `json:"location,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

// ItineraryPatch is a partial update; empty values leave fields unchanged.
type ItineraryPatch struct {
	Title    string
	Date     *time.Time
	Time     *string
	Location string
	Notes    string
}

// Apply returns a copy of item with the patch applied.
func (p ItineraryPatch) Apply(item ItineraryItem) ItineraryItem {
	if t := strings.TrimSpace(p.Title); t != "" {
		item.Title = t
	}
	if p.Date != nil && !p.Date.IsZero() {
		item.Date = *p.Date
	}
	if p.Time != nil && *p.Time != "" {
		v := *p.Time
		item.Time = &v
	}
	if p.Location != "" {
		item.Location = p.Location
	}
	if p.Notes != "" {
		item.Notes = p.Notes
	}
	return item
}
