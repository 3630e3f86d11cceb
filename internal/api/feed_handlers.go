package api

import (
	"net/http"
	"strconv"

	"github.com/openlove/feedrank/internal/feed"
	"github.com/openlove/feedrank/internal/middleware"
)

// Paging constraints for feed endpoints.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 50
)

// FeedHandlers holds dependencies for feed HTTP handlers.
type FeedHandlers struct {
	engine *feed.Engine
}

// NewFeedHandlers creates a new FeedHandlers instance.
func NewFeedHandlers(engine *feed.Engine) *FeedHandlers {
	return &FeedHandlers{
		engine: engine,
	}
}

// ForYou handles GET /feed/for-you - the weighted personalized feed.
func (h *FeedHandlers) ForYou(w http.ResponseWriter, r *http.Request) {
	userID, page, limit, ok := h.feedParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.PersonalizedFeed(r.Context(), userID, page, limit))
}

// Following handles GET /feed/following - recency-ordered posts from
// followed users.
func (h *FeedHandlers) Following(w http.ResponseWriter, r *http.Request) {
	userID, page, limit, ok := h.feedParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.FollowingFeed(r.Context(), userID, page, limit))
}

// Explore handles GET /feed/explore - engagement-ordered discovery feed.
func (h *FeedHandlers) Explore(w http.ResponseWriter, r *http.Request) {
	userID, page, limit, ok := h.feedParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ExploreFeed(r.Context(), userID, page, limit))
}

// feedParams validates the method, the authenticated user, and the
// paging query parameters shared by all feed endpoints. It writes the
// error response itself and returns ok=false on failure.
func (h *FeedHandlers) feedParams(w http.ResponseWriter, r *http.Request) (userID string, page, limit int, ok bool) {
	if r.Method != http.MethodGet {
		errorWithCode(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return "", 0, 0, false
	}

	userID = middleware.GetUserID(r.Context())
	if userID == "" {
		errorWithCode(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return "", 0, 0, false
	}

	page, err := queryInt(r, "page", DefaultPage)
	if err != nil || page < 1 {
		errorWithCode(w, r, http.StatusBadRequest, ErrCodeValidation, "page must be a positive integer")
		return "", 0, 0, false
	}

	limit, err = queryInt(r, "limit", DefaultLimit)
	if err != nil || limit < 1 {
		errorWithCode(w, r, http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
		return "", 0, 0, false
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return userID, page, limit, true
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// Unauthorized is the shared 401 responder handed to the auth
// middleware.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	errorWithCode(w, r, http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid or missing access token")
}
