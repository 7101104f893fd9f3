package handler

import (
	"net/http"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// FavoriteRequest is the body of POST /favorites. The optional fields are only
// used when the name is new to the catalog.
type FavoriteRequest struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// FavoritedResponse is the body of GET /favorites/check.
type FavoritedResponse struct {
	Favorited bool `json:"favorited"`
}

// ListFavorites handles GET /favorites, newest favorite first.
func (s *Server) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Favorites.List(r.Context(), user)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// AddFavorite handles POST /favorites. It answers 201 when the favorite is
// new and 200 when the actor had already favorited the destination.
func (s *Server) AddFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var body FavoriteRequest
	if !decodeBody(w, r, &body) {
		return
	}
	d, added, err := s.svc.Favorites.Add(r.Context(), user, domain.NewFavorite{
		Name:        body.Name,
		Country:     body.Country,
		Description: body.Description,
		ImageURL:    body.ImageURL,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, d)
}

// RemoveFavorite handles DELETE /favorites/{destinationID}.
func (s *Server) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	destID, ok := pathUUID(w, r, "destinationID")
	if !ok {
		return
	}
	if err := s.svc.Favorites.Remove(r.Context(), user, destID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PopularDestinations handles GET /favorites/popular?limit=.
func (s *Server) PopularDestinations(w http.ResponseWriter, r *http.Request) {
	var limit int
	if !queryParam(w, r, "limit", &limit) {
		return
	}
	list, err := s.svc.Favorites.Popular(r.Context(), limit)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// SearchFavorites handles GET /favorites/search?q=.
func (s *Server) SearchFavorites(w http.ResponseWriter, r *http.Request) {
	var q string
	if !queryParam(w, r, "q", &q) {
		return
	}
	list, err := s.svc.Favorites.Search(r.Context(), q)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// IsFavorited handles GET /favorites/check?name=.
func (s *Server) IsFavorited(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var name string
	if !queryParam(w, r, "name", &name) {
		return
	}
	fav, err := s.svc.Favorites.IsFavorited(r.Context(), user, name)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoritedResponse{Favorited: fav})
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
