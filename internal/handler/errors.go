package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
	"github.com/lumia-Qcode/JetSetGo/internal/middleware"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope for every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// errorStatus maps a domain sentinel to its HTTP status and error code.
// The first matching sentinel wins.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrInvalidToken, http.StatusBadRequest, "invalid_token"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
}

// writeJSON writes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError rejects a request before it reaches the service layer
// (malformed body, bad path or query parameter).
func requestError(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusBadRequest, "bad_request", message)
}

// serviceError maps an error returned by a service to a response. Unknown
// errors are logged and reported as a generic 500 so internals do not leak.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			writeErrorBody(w, m.status, m.code, unwrapMessage(err, m.err))
			return
		}
	}
	s.log.ErrorContext(r.Context(), "unhandled service error",
		"method", r.Method, "path", r.URL.Path, "error", err)
	writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// unwrapMessage extracts the human-readable part that follows the sentinel in
// a wrapped error.
// e.g. "service.TripService.Create: validation error: title is required" -> "title is required"
// When nothing follows the sentinel, its own text is returned.
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// decodeBody decodes the JSON request body into dst. It writes the error
// response itself and returns false when the body cannot be used.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeDecodeError(w, err)
		return false
	}
	return true
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeErrorBody(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}
	requestError(w, "invalid request body: "+err.Error())
}

// pathUUID binds the named chi path parameter as a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, "invalid "+name+": "+err.Error())
		return uuid.Nil, false
	}
	return id, true
}

// queryParam binds an optional query parameter into dst, leaving it untouched
// when absent.
func queryParam(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		requestError(w, "invalid "+name+": "+err.Error())
		return false
	}
	return true
}

// actor returns the authenticated user. RequireUser guarantees it is set on
// every route that calls this; a missing value is answered with 401.
func actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
	}
	return id, ok
}

// tripRequest resolves the actor and the {tripID} path parameter shared by
// every trip-scoped route.
func tripRequest(w http.ResponseWriter, r *http.Request) (user, tripID uuid.UUID, ok bool) {
	if user, ok = actor(w, r); !ok {
		return uuid.Nil, uuid.Nil, false
	}
	if tripID, ok = pathUUID(w, r, "tripID"); !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return user, tripID, true
}
