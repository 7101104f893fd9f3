package handler

import (
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// CreateTripRequest is the body of POST /trips. Destination entries may hold
// several comma-separated names.
type CreateTripRequest struct {
	Title        string              `json:"title"`
	Destinations []string            `json:"destinations"`
	StartDate    *openapi_types.Date `json:"start_date"`
	EndDate      *openapi_types.Date `json:"end_date"`
	Description  string              `json:"description"`
}

// UpdateTripRequest is the body of PATCH /trips/{tripID}. Omitted fields keep
// their stored value; a non-empty destinations list replaces the whole set.
type UpdateTripRequest struct {
	Title        string              `json:"title"`
	Destinations []string            `json:"destinations"`
	StartDate    *openapi_types.Date `json:"start_date"`
	EndDate      *openapi_types.Date `json:"end_date"`
	Description  *string             `json:"description"`
}

// UsernameRequest names the user a trip is shared with.
type UsernameRequest struct {
	Username string `json:"username"`
}

// InviteRequest is the body of POST /trips/{tripID}/invitations.
type InviteRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// PasswordRequest re-confirms the actor's password for destructive operations.
type PasswordRequest struct {
	Password string `json:"password"`
}

// NameRequest carries a single destination name.
type NameRequest struct {
	Name string `json:"name"`
}

// Trip is the JSON view of a trip.
type Trip struct {
	Id          openapi_types.UUID `json:"id"`
	Title       string             `json:"title"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	Description string             `json:"description,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// TripDetail is a trip with everything it owns.
type TripDetail struct {
	Trip
	Destinations []domain.TripDestination `json:"destinations"`
	Participants []User                   `json:"participants"`
	Itinerary    []ItineraryItem          `json:"itinerary"`
	Budget       *Budget                  `json:"budget,omitempty"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// TripList is the body of GET /trips.
type TripList struct {
	Data       []Trip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Dissolution reports whether leaving a trip deleted it.
type Dissolution struct {
	Dissolved bool `json:"dissolved"`
}

// LeaveAllResult is the body of POST /me/leave-all-trips.
type LeaveAllResult struct {
	Left      int `json:"left"`
	Dissolved int `json:"dissolved"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var body CreateTripRequest
	if !decodeBody(w, r, &body) {
		return
	}
	in := domain.NewTrip{
		Title:        body.Title,
		Destinations: body.Destinations,
		Description:  body.Description,
	}
	if body.StartDate != nil {
		in.StartDate = body.StartDate.Time
	}
	if body.EndDate != nil {
		in.EndDate = body.EndDate.Time
	}

	created, err := s.svc.Trips.Create(r.Context(), user, in)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripDetailToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var page, limit *int
	if !queryParam(w, r, "page", &page) || !queryParam(w, r, "limit", &limit) {
		return
	}
	params := domain.NewPaginationParams(page, limit)

	trips, total, err := s.svc.Trips.List(r.Context(), user, params)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	data := make([]Trip, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripList{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	d, err := s.svc.Trips.Get(r.Context(), user, tripID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripDetailToResponse(d))
}

// UpdateTrip handles PATCH /trips/{tripID}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body UpdateTripRequest
	if !decodeBody(w, r, &body) {
		return
	}
	patch := domain.TripPatch{
		Title:        body.Title,
		Destinations: body.Destinations,
		Description:  body.Description,
	}
	if body.StartDate != nil {
		patch.StartDate = &body.StartDate.Time
	}
	if body.EndDate != nil {
		patch.EndDate = &body.EndDate.Time
	}

	d, err := s.svc.Trips.Update(r.Context(), user, tripID, patch)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripDetailToResponse(d))
}

// DeleteTrip handles DELETE /trips/{tripID}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	if err := s.svc.Trips.Delete(r.Context(), user, tripID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ShareTrip handles POST /trips/{tripID}/share. The named user joins the
// trip immediately; sharing with a current participant is a no-op.
func (s *Server) ShareTrip(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body UsernameRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.Trips.Share(r.Context(), user, tripID, body.Username); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InviteToTrip handles POST /trips/{tripID}/invitations.
func (s *Server) InviteToTrip(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body InviteRequest
	if !decodeBody(w, r, &body) {
		return
	}
	n, err := s.svc.Trips.Invite(r.Context(), user, tripID, body.Username, body.Message)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// RemoveParticipant handles DELETE /trips/{tripID}/participants/{userID}.
func (s *Server) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	dissolved, err := s.svc.Trips.RemoveParticipant(r.Context(), user, tripID, userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Dissolution{Dissolved: dissolved})
}

// LeaveAllTrips handles POST /me/leave-all-trips.
func (s *Server) LeaveAllTrips(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var body PasswordRequest
	if !decodeBody(w, r, &body) {
		return
	}
	left, dissolved, err := s.svc.Trips.LeaveAllTrips(r.Context(), user, body.Password)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaveAllResult{Left: left, Dissolved: dissolved})
}

// AddDestination handles POST /trips/{tripID}/destinations.
func (s *Server) AddDestination(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body NameRequest
	if !decodeBody(w, r, &body) {
		return
	}
	d, err := s.svc.Trips.AddDestination(r.Context(), user, tripID, body.Name)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// FavoriteTripDestination handles POST /trips/{tripID}/destinations/{destinationID}/favorite.
func (s *Server) FavoriteTripDestination(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	destID, ok := pathUUID(w, r, "destinationID")
	if !ok {
		return
	}
	d, err := s.svc.Trips.FavoriteDestination(r.Context(), user, tripID, destID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// --- mapping helpers --------------------------------------------------------

func tripToResponse(t domain.Trip) Trip {
	return Trip{
		Id:          t.ID,
		Title:       t.Title,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		EndDate:     openapi_types.Date{Time: t.EndDate},
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tripDetailToResponse(d domain.TripDetail) TripDetail {
	out := TripDetail{
		Trip:         tripToResponse(d.Trip),
		Destinations: d.Destinations,
		Participants: make([]User, len(d.Participants)),
		Itinerary:    make([]ItineraryItem, len(d.Itinerary)),
	}
	if out.Destinations == nil {
		out.Destinations = []domain.TripDestination{}
	}
	for i, u := range d.Participants {
		out.Participants[i] = userToResponse(u)
	}
	for i, it := range d.Itinerary {
		out.Itinerary[i] = itineraryToResponse(it)
	}
	if d.Budget != nil {
		b := budgetToResponse(*d.Budget)
		out.Budget = &b
	}
	return out
}
