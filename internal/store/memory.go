// Package store provides data-source implementations of the feed
// engine's Store port: an in-memory store for tests and a PostgreSQL
// store for production.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/openlove/feedrank/internal/feed"
)

// ErrUserNotFound is returned when a profile lookup misses.
var ErrUserNotFound = errors.New("user not found")

// Memory is an in-memory implementation of feed.Store.
// Thread-safe via RWMutex. Used by unit tests and local development.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]*feed.UserProfile
	posts   map[string]*feed.CandidatePost
	follows map[string]map[string]bool // follower -> following set
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]*feed.UserProfile),
		posts:   make(map[string]*feed.CandidatePost),
		follows: make(map[string]map[string]bool),
	}
}

// AddUser registers a user profile, assigning an ID if absent.
func (m *Memory) AddUser(u *feed.UserProfile) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	userCopy := *u
	m.users[u.ID] = &userCopy
	return u.ID
}

// AddPost registers a post, assigning an ID if absent. Posts default to
// public visibility.
func (m *Memory) AddPost(p *feed.CandidatePost) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Visibility == "" {
		p.Visibility = "public"
	}
	postCopy := *p
	m.posts[p.ID] = &postCopy
	return p.ID
}

// AddFollow records a follower -> following relationship.
func (m *Memory) AddFollow(followerID, followingID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.follows[followerID]
	if !ok {
		set = make(map[string]bool)
		m.follows[followerID] = set
	}
	set[followingID] = true
}

// GetProfile loads a user's scoring attributes.
func (m *Memory) GetProfile(_ context.Context, userID string) (*feed.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	userCopy := *u
	return &userCopy, nil
}

// ListCandidates returns up to limit public posts by other authors,
// newest first.
func (m *Memory) ListCandidates(_ context.Context, excludeUserID string, limit int) ([]*feed.CandidatePost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []*feed.CandidatePost
	for _, p := range m.posts {
		if p.UserID == excludeUserID || p.Visibility != "public" {
			continue
		}
		candidates = append(candidates, p)
	}

	sortByCreatedDesc(candidates)

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return copyPosts(candidates), nil
}

// ListFallback returns a plain newest-first window with no author
// exclusion.
func (m *Memory) ListFallback(_ context.Context, offset, limit int) ([]*feed.CandidatePost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []*feed.CandidatePost
	for _, p := range m.posts {
		if p.Visibility != "public" {
			continue
		}
		all = append(all, p)
	}

	sortByCreatedDesc(all)
	return copyPosts(window(all, offset, limit)), nil
}

// FollowsAnyone reports whether the user follows at least one other user.
func (m *Memory) FollowsAnyone(_ context.Context, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.follows[userID]) > 0, nil
}

// ListFollowingPosts returns a newest-first window of posts authored by
// followed users.
func (m *Memory) ListFollowingPosts(_ context.Context, userID string, offset, limit int) ([]*feed.CandidatePost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	followed := m.follows[userID]
	var posts []*feed.CandidatePost
	for _, p := range m.posts {
		if !followed[p.UserID] || p.Visibility != "public" {
			continue
		}
		posts = append(posts, p)
	}

	sortByCreatedDesc(posts)
	return copyPosts(window(posts, offset, limit)), nil
}

// ListExplorePosts returns a window of posts excluding the requester's
// own, ordered by likes desc, comments desc, created_at desc.
func (m *Memory) ListExplorePosts(_ context.Context, excludeUserID string, offset, limit int) ([]*feed.CandidatePost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var posts []*feed.CandidatePost
	for _, p := range m.posts {
		if p.UserID == excludeUserID || p.Visibility != "public" {
			continue
		}
		posts = append(posts, p)
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].LikesCount != posts[j].LikesCount {
			return posts[i].LikesCount > posts[j].LikesCount
		}
		if posts[i].CommentsCount != posts[j].CommentsCount {
			return posts[i].CommentsCount > posts[j].CommentsCount
		}
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})

	return copyPosts(window(posts, offset, limit)), nil
}

// sortByCreatedDesc orders posts newest first with an ID tie-break for
// stable pagination.
func sortByCreatedDesc(posts []*feed.CandidatePost) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
}

// window slices posts to [offset, offset+limit).
func window(posts []*feed.CandidatePost, offset, limit int) []*feed.CandidatePost {
	if offset >= len(posts) {
		return nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end]
}

// copyPosts returns deep copies to prevent external mutation.
func copyPosts(posts []*feed.CandidatePost) []*feed.CandidatePost {
	copies := make([]*feed.CandidatePost, len(posts))
	for i, p := range posts {
		postCopy := *p
		copies[i] = &postCopy
	}
	return copies
}
