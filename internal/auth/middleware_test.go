package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openlove/feedrank/internal/middleware"
)

type stubValidator struct {
	userID string
	err    error
}

func (s *stubValidator) ValidateAccessToken(string) (string, error) {
	return s.userID, s.err
}

func reject401(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	var gotUserID string
	handler := RequireAuth(&stubValidator{userID: "user-123"}, reject401)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserID = middleware.GetUserID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/feed/for-you", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user-123" {
		t.Errorf("context user ID = %q, want %q", gotUserID, "user-123")
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator TokenValidator
	}{
		{"missing header", "", &stubValidator{userID: "u"}},
		{"wrong scheme", "Basic abc123", &stubValidator{userID: "u"}},
		{"empty token", "Bearer ", &stubValidator{userID: "u"}},
		{"validator rejects", "Bearer bad-token", &stubValidator{err: errors.New("invalid")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := RequireAuth(tt.validator, reject401)(
				http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
					called = true
				}))

			req := httptest.NewRequest(http.MethodGet, "/feed/for-you", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("handler should not run for a rejected request")
			}
		})
	}
}
