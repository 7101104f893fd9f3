package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FavoriteDestination is a catalog entry that users can favorite.
// Identity is the case-insensitive Name: the first writer's casing is kept
// and later writers attach to the existing row.
type FavoriteDestination struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Country     string    `json:"country,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PopularDestination is a catalog entry with the number of users who favorited it.
type PopularDestination struct {
	FavoriteDestination
	Favorites int64 `json:"favorites"`
}

// NewFavorite carries the fields used when a favorite creates a catalog entry.
// Optional fields are ignored when the name already exists.
type NewFavorite struct {
	Name        string
	Country     string
	Description string
	ImageURL    string
}

// FavoriteKey normalizes a destination name to its identity key.
func FavoriteKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
