package handler

import "net/http"

// ReviewRequest is the body of POST /trips/{tripID}/reviews.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AddReview handles POST /trips/{tripID}/reviews.
func (s *Server) AddReview(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	var body ReviewRequest
	if !decodeBody(w, r, &body) {
		return
	}
	rev, err := s.svc.Reviews.Add(r.Context(), user, tripID, body.Rating, body.Comment)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

// ListReviews handles GET /trips/{tripID}/reviews, newest first.
func (s *Server) ListReviews(w http.ResponseWriter, r *http.Request) {
	user, tripID, ok := tripRequest(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Reviews.List(r.Context(), user, tripID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}
