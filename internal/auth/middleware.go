package auth

import (
	"net/http"
	"strings"

	"github.com/openlove/feedrank/internal/middleware"
)

// TokenValidator validates an access token and returns the user ID.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (string, error)
}

// RequireAuth is a middleware that validates the Bearer token and
// stores the authenticated user ID in the request context. Requests
// without a valid token are rejected with 401 before reaching the
// handler.
func RequireAuth(validator TokenValidator, unauthorized http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r)
				return
			}

			userID, err := validator.ValidateAccessToken(token)
			if err != nil {
				unauthorized(w, r)
				return
			}

			ctx := middleware.SetUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
