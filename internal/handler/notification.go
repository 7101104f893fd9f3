package handler

import (
	"net/http"
)

// ListNotifications handles GET /notifications. ?pending=true limits the
// result to unanswered requests.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	var pending bool
	if !queryParam(w, r, "pending", &pending) {
		return
	}
	list, err := s.svc.Notifications.List(r.Context(), user, pending)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// RespondToNotification handles POST /notifications/{notificationID}/respond.
func (s *Server) RespondToNotification(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "notificationID")
	if !ok {
		return
	}
	accept, ok := decodeAnswer(w, r)
	if !ok {
		return
	}
	n, err := s.svc.Notifications.Respond(r.Context(), user, id, accept)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
