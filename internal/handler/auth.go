package handler

import (
	"errors"
	"net/http"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/lumia-Qcode/JetSetGo/internal/domain"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string              `json:"username"`
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

// PasswordResetRequest is the body of POST /auth/password-reset.
type PasswordResetRequest struct {
	Email openapi_types.Email `json:"email"`
}

// PasswordResetConfirm is the body of POST /auth/password-reset/confirm.
type PasswordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// User is the public view of an account. The password hash never leaves the
// service layer.
type User struct {
	Id        openapi_types.UUID `json:"id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	CreatedAt time.Time          `json:"created_at"`
}

// Session is returned by register and login.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Register handles POST /auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var body RegisterRequest
	if !decodeAuthBody(w, r, &body) {
		return
	}
	u, err := s.svc.Identity.Register(r.Context(), body.Username, string(body.Email), body.Password)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusCreated, u)
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if !decodeAuthBody(w, r, &body) {
		return
	}
	u, err := s.svc.Identity.Authenticate(r.Context(), string(body.Email), body.Password)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.writeSession(w, r, http.StatusOK, u)
}

// GetMe handles GET /me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := actor(w, r)
	if !ok {
		return
	}
	u, err := s.svc.Identity.Me(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(u))
}

// RequestPasswordReset handles POST /auth/password-reset.
// It answers 202 whether or not the address belongs to an account.
func (s *Server) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body PasswordResetRequest
	if !decodeAuthBody(w, r, &body) {
		return
	}
	if err := s.svc.Reset.RequestReset(r.Context(), string(body.Email)); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm.
func (s *Server) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body PasswordResetConfirm
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.Reset.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, status int, u domain.User) {
	token, err := s.svc.Identity.IssueToken(u)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeJSON(w, status, Session{User: userToResponse(u), Token: token})
}

// decodeAuthBody is decodeBody for bodies carrying an email. A malformed
// address is a validation failure (422), not a malformed request.
func decodeAuthBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		if errors.Is(err, openapi_types.ErrValidationEmail) {
			writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "email is invalid")
			return false
		}
		writeDecodeError(w, err)
		return false
	}
	return true
}

func userToResponse(u domain.User) User {
	return User{
		Id:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
