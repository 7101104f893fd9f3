package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumia-Qcode/JetSetGo/internal/middleware"
)

// mockTokenParser is a function-field test double for middleware.TokenParser.
type mockTokenParser struct {
	parse func(token string) (uuid.UUID, error)
}

func (m mockTokenParser) ParseToken(token string) (uuid.UUID, error) { return m.parse(token) }

func TestRequireUser(t *testing.T) {
	userID := uuid.New()
	parser := mockTokenParser{parse: func(token string) (uuid.UUID, error) {
		if token == "good" {
			return userID, nil
		}
		return uuid.Nil, errors.New("bad token")
	}}

	var seen uuid.UUID
	h := middleware.RequireUser(parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.UserID(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer good", http.StatusNoContent},
		{"scheme is case-insensitive", "bearer good", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"rejected token", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = uuid.Nil
			req := httptest.NewRequest(http.MethodGet, "/trips", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusNoContent {
				assert.Equal(t, userID, seen)
			} else {
				assert.Equal(t, uuid.Nil, seen)
				assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestUserID_Missing(t *testing.T) {
	_, ok := middleware.UserID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
