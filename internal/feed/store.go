package feed

import "context"

// Store is the engine's read-only view of the relational data source.
// Implementations must return posts with the author join already
// denormalized into CandidatePost.User.
type Store interface {
	// GetProfile loads the requesting user's scoring attributes.
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)

	// ListCandidates returns up to limit public posts authored by users
	// other than excludeUserID, newest first.
	ListCandidates(ctx context.Context, excludeUserID string, limit int) ([]*CandidatePost, error)

	// ListFallback returns a plain newest-first window of public posts
	// with no author exclusion and no scoring. Implementations return
	// an empty slice, not an error, when the posts relation does not
	// exist yet.
	ListFallback(ctx context.Context, offset, limit int) ([]*CandidatePost, error)

	// FollowsAnyone reports whether the user has at least one follow
	// relationship.
	FollowsAnyone(ctx context.Context, userID string) (bool, error)

	// ListFollowingPosts returns a newest-first window of posts
	// authored by users that userID follows.
	ListFollowingPosts(ctx context.Context, userID string, offset, limit int) ([]*CandidatePost, error)

	// ListExplorePosts returns a window of posts excluding the
	// requester's own, ordered by likes desc, comments desc,
	// created_at desc.
	ListExplorePosts(ctx context.Context, excludeUserID string, offset, limit int) ([]*CandidatePost, error)
}

// PageCache is the engine's view of the shared page cache. The cache is
// strictly a performance optimization: every miss recomputes from the
// store, so correctness never depends on cache consistency.
type PageCache interface {
	// Get returns the cached page for key, or ok=false on a miss.
	Get(ctx context.Context, key PageKey) (page *FeedPage, ok bool, err error)

	// Set stores the page under key. Last writer wins.
	Set(ctx context.Context, key PageKey, page *FeedPage) error
}

// PrefetchNext warms the cache entry for key if it is absent, producing
// the page via fill. Used by the engine's fire-and-forget prefetch; the
// error return exists for tests and logging, callers may ignore it.
func PrefetchNext(ctx context.Context, cache PageCache, key PageKey, fill func(context.Context) (*FeedPage, error)) error {
	if _, ok, err := cache.Get(ctx, key); err == nil && ok {
		return nil
	}
	page, err := fill(ctx)
	if err != nil {
		return err
	}
	return cache.Set(ctx, key, page)
}
