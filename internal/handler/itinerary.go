package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// ItineraryRequest is the body of both POST and PATCH on itinerary items.
// On PATCH, omitted or empty fields keep their stored value.
type ItineraryRequest struct {
	Title    string              `json:"title"`
	Date     *openapi_types.Date `json:"date"`
	Time     *string             `json:"time"`
	Location string              `json:"location"`
	Notes    string              `json:"notes"`
}

// ItineraryItem is the JSON view of an itinerary entry. Time is "HH:MM".
type ItineraryItem struct {
	Id       openapi_types.UUID `json:"id"`
	TripId   openapi_types.UUID `json:"trip_id"`
	Title    string             `json:"title"`
	Date     openapi_types.Date `json:"date"`
	Time     *string            `json:"time,omitempty"`
	Location string             `json:"location,omitempty"`
	Notes    string             `json:"notes,omitempty"`
}

// ListItinerary handles GET /trips/{tripID}/itinerary.
func (s *Server) ListItinerary(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	items, err := s.svc.Itinerary.List(r.Context(), user, tripID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	out := make([]ItineraryItem, len(items))
	for i, it := range items {
		out[i] = itineraryToResponse(it)
	}
	writeJSON(w, http.StatusOK, out)
}

// AddItineraryItem handles POST /trips/{tripID}/itinerary.
func (s *Server) AddItineraryItem(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body ItineraryRequest
	if !decodeBody(w, r, &body) {
		return
	}
	item := domain.ItineraryItem{
		Title:    body.Title,
		Time:     body.Time,
		Location: body.Location,
		Notes:    body.Notes,
	}
	if body.Date != nil {
		item.Date = body.Date.Time
	}

	created, err := s.svc.Itinerary.Add(r.Context(), user, tripID, item)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itineraryToResponse(created))
}

// UpdateItineraryItem handles PATCH /trips/{tripID}/itinerary/{itemID}.
func (s *Server) UpdateItineraryItem(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	var body ItineraryRequest
	if !decodeBody(w, r, &body) {
		return
	}
	patch := domain.ItineraryPatch{
		Title:    body.Title,
		Time:     body.Time,
		Location: body.Location,
		Notes:    body.Notes,
	}
	if body.Date != nil {
		patch.Date = &body.Date.Time
	}

	updated, err := s.svc.Itinerary.Update(r.Context(), user, tripID, itemID, patch)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itineraryToResponse(updated))
}

// DeleteItineraryItem handles DELETE /trips/{tripID}/itinerary/{itemID}.
func (s *Server) DeleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	if err := s.svc.Itinerary.Delete(r.Context(), user, tripID, itemID); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itineraryToResponse(it domain.ItineraryItem) ItineraryItem {
	return ItineraryItem{
		Id:       it.ID,
		TripId:   it.TripID,
		Title:    it.Title,
		Date:     openapi_types.Date{Time: it.Date},
		Time:     it.Time,
		Location: it.Location,
		Notes:    it.Notes,
	}
}
