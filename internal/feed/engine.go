package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Paging defaults.
const (
	DefaultLimit = 20

	// DefaultCandidatePool is how many newest public posts the
	// personalized path fetches and scores per cache miss.
	DefaultCandidatePool = 500
)

// Config carries engine construction options. Zero values select
// production defaults.
type Config struct {
	// CandidatePool caps the scored candidate batch. Defaults to
	// DefaultCandidatePool.
	CandidatePool int

	// Weights overrides the scoring weights. Defaults to
	// DefaultWeights().
	Weights *Weights

	// Rand supplies the tie-break randomness. Tests pass a fixed seed
	// to pin ordering; defaults to a time-seeded source.
	Rand *rand.Rand

	// Now supplies the clock for recency scoring. Defaults to time.Now.
	Now func() time.Time

	// GeoRanking switches the location component from the neutral
	// constant to geodistance scoring. Off by default.
	GeoRanking bool

	Logger  *slog.Logger
	Metrics *Metrics
}

// Engine produces relevance-ordered, paginated feed pages backed by a
// read-through page cache, with heuristic fallbacks on any data-access
// failure. Its public operations never return an error: degraded
// service surfaces as unscored fallback ranking or an empty page.
type Engine struct {
	store   Store
	cache   PageCache
	scorer  *Scorer
	pool    int
	logger  *slog.Logger
	metrics *Metrics

	// mu guards rng; the prefetch goroutine scores concurrently with
	// request handlers.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a feed engine over the given store and cache.
func NewEngine(store Store, cache PageCache, cfg Config) *Engine {
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = DefaultCandidatePool
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		store:   store,
		cache:   cache,
		scorer:  NewScorer(cfg.Weights, cfg.Now, cfg.GeoRanking),
		pool:    cfg.CandidatePool,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		rng:     cfg.Rand,
	}
}

// PersonalizedFeed returns the weighted-scored "for-you" page for a
// user. Cache hits return immediately; a page-1 hit additionally warms
// page 2 in the background. On a miss the whole candidate pool is
// fetched, scored, and sorted before the page window is sliced, so the
// same absolute page number may return different posts across cache
// invalidations.
func (e *Engine) PersonalizedFeed(ctx context.Context, userID string, page, limit int) *FeedPage {
	page, limit = normalizePaging(page, limit)
	key := PageKey{UserID: userID, Kind: KindForYou, Page: page}

	if cached := e.lookup(ctx, key); cached != nil {
		if page == 1 {
			e.prefetch(key.Next(), limit)
		}
		return cached
	}
	e.metrics.IncCacheMiss(KindForYou)

	result, err := e.computeForYou(ctx, userID, page, limit)
	if err != nil {
		e.logger.Error("personalized feed degraded to fallback",
			"user_id", userID,
			"page", page,
			"error", err)
		e.metrics.IncFallback()
		return e.fallbackPage(ctx, page, limit)
	}

	e.storePage(ctx, key, result)
	return result
}

// FollowingFeed returns a recency-ordered page of posts from followed
// users. No weighted scoring applies; pagination is pushed to the data
// source. The result reports whether the user follows anyone at all so
// callers can distinguish "no connections" from "connections have not
// posted".
func (e *Engine) FollowingFeed(ctx context.Context, userID string, page, limit int) *FeedPage {
	page, limit = normalizePaging(page, limit)
	key := PageKey{UserID: userID, Kind: KindFollowing, Page: page}

	if cached := e.lookup(ctx, key); cached != nil {
		return cached
	}
	e.metrics.IncCacheMiss(KindFollowing)

	follows, err := e.store.FollowsAnyone(ctx, userID)
	if err != nil {
		e.logger.Error("follow graph lookup failed",
			"user_id", userID,
			"error", err)
		return followingPage(nil, page, false)
	}

	if !follows {
		result := followingPage(nil, page, false)
		e.storePage(ctx, key, result)
		return result
	}

	// Fetch one row past the window so hasMore reflects the data
	// source rather than the page being exactly full.
	posts, err := e.store.ListFollowingPosts(ctx, userID, (page-1)*limit, limit+1)
	if err != nil {
		e.logger.Error("following feed query failed",
			"user_id", userID,
			"page", page,
			"error", err)
		return followingPage(nil, page, false)
	}

	posts, hasMore := trimLookahead(posts, limit)
	result := followingPage(posts, page, true)
	result.HasMore = hasMore
	e.storePage(ctx, key, result)
	return result
}

// ExploreFeed returns an engagement-ordered page of posts (likes desc,
// comments desc, created_at desc) excluding the requester's own. No
// weighted scoring applies.
func (e *Engine) ExploreFeed(ctx context.Context, userID string, page, limit int) *FeedPage {
	page, limit = normalizePaging(page, limit)
	key := PageKey{UserID: userID, Kind: KindExplore, Page: page}

	if cached := e.lookup(ctx, key); cached != nil {
		return cached
	}
	e.metrics.IncCacheMiss(KindExplore)

	posts, err := e.store.ListExplorePosts(ctx, userID, (page-1)*limit, limit+1)
	if err != nil {
		e.logger.Error("explore feed query failed",
			"user_id", userID,
			"page", page,
			"error", err)
		return emptyPage(page)
	}

	posts, hasMore := trimLookahead(posts, limit)
	result := &FeedPage{
		Data:     unscored(posts),
		HasMore:  hasMore,
		NextPage: page + 1,
		Total:    len(posts),
	}
	e.storePage(ctx, key, result)
	return result
}

// computeForYou runs the full miss path: profile load, candidate fetch,
// scoring, randomized-tie sort, and in-memory pagination.
func (e *Engine) computeForYou(ctx context.Context, userID string, page, limit int) (*FeedPage, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}

	candidates, err := e.store.ListCandidates(ctx, userID, e.pool)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	start := time.Now()
	scored := make([]*ScoredPost, len(candidates))
	for i, c := range candidates {
		scored[i] = e.scorer.Score(profile, c)
	}
	e.metrics.ObserveScoreLatency(time.Since(start).Seconds())

	e.sortScored(scored)

	win := pageWindow(scored, page, limit)
	return &FeedPage{
		Data:     win,
		HasMore:  len(win) == limit,
		NextPage: page + 1,
		Total:    len(win),
	}, nil
}

// sortScored orders posts by rounded score descending. Posts whose
// scores fall within TieBreakBand of each other are ordered randomly to
// keep the feed fresh across recomputations.
func (e *Engine) sortScored(scored []*ScoredPost) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sort.Slice(scored, func(i, j int) bool {
		diff := scored[i].Score - scored[j].Score
		if diff > -TieBreakBand && diff < TieBreakBand {
			return e.rng.Intn(2) == 0
		}
		return diff > 0
	})
}

// lookup reads the cache and tags hits. Cache errors are treated as
// misses; the cache is an optimization, never a source of truth.
func (e *Engine) lookup(ctx context.Context, key PageKey) *FeedPage {
	cached, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("feed cache read failed",
			"user_id", key.UserID,
			"kind", key.Kind,
			"page", key.Page,
			"error", err)
		return nil
	}
	if !ok {
		return nil
	}
	e.metrics.IncCacheHit(key.Kind)
	hit := *cached
	hit.CacheHit = true
	return &hit
}

// storePage writes a computed page to the cache. Failures are logged
// and swallowed.
func (e *Engine) storePage(ctx context.Context, key PageKey, page *FeedPage) {
	if err := e.cache.Set(ctx, key, page); err != nil {
		e.logger.Warn("feed cache write failed",
			"user_id", key.UserID,
			"kind", key.Kind,
			"page", key.Page,
			"error", err)
	}
}

// prefetch warms the cache for key in the background. Fire-and-forget:
// the caller does not await it, failures are swallowed, and there is no
// cancellation; if the process exits first the warm-up is simply lost.
func (e *Engine) prefetch(key PageKey, limit int) {
	e.metrics.IncPrefetch()
	go func() {
		err := PrefetchNext(context.Background(), e.cache, key, func(ctx context.Context) (*FeedPage, error) {
			return e.computeForYou(ctx, key.UserID, key.Page, limit)
		})
		if err != nil {
			e.logger.Debug("background prefetch failed",
				"user_id", key.UserID,
				"page", key.Page,
				"error", err)
		}
	}()
}

// fallbackPage serves the degraded unscored path: a plain newest-first
// window with no author exclusion. Any further failure yields an empty
// page; nothing propagates to the caller.
func (e *Engine) fallbackPage(ctx context.Context, page, limit int) *FeedPage {
	posts, err := e.store.ListFallback(ctx, (page-1)*limit, limit)
	if err != nil {
		e.logger.Error("fallback feed query failed",
			"page", page,
			"error", err)
		return emptyPage(page)
	}
	return &FeedPage{
		Data:     unscored(posts),
		HasMore:  len(posts) == limit,
		NextPage: page + 1,
		Total:    len(posts),
	}
}

// followingPage assembles a following-feed page. HasMore defaults to
// false; callers with lookahead data overwrite it.
func followingPage(posts []*CandidatePost, page int, isFollowing bool) *FeedPage {
	result := &FeedPage{
		Data:              unscored(posts),
		NextPage:          page + 1,
		Total:             len(posts),
		IsFollowingAnyone: &isFollowing,
	}
	return result
}

// trimLookahead drops the lookahead row and reports whether more rows
// exist past the requested window.
func trimLookahead(posts []*CandidatePost, limit int) ([]*CandidatePost, bool) {
	if len(posts) > limit {
		return posts[:limit], true
	}
	return posts, false
}

// emptyPage is the documented empty result for failed unscored paths.
func emptyPage(page int) *FeedPage {
	return &FeedPage{
		Data:     []*ScoredPost{},
		NextPage: page + 1,
	}
}

// unscored wraps raw posts for paths that skip weighted scoring.
func unscored(posts []*CandidatePost) []*ScoredPost {
	data := make([]*ScoredPost, len(posts))
	for i, p := range posts {
		data[i] = &ScoredPost{CandidatePost: *p}
	}
	return data
}

// pageWindow slices the sorted candidate list to the requested page.
func pageWindow(scored []*ScoredPost, page, limit int) []*ScoredPost {
	offset := (page - 1) * limit
	if offset >= len(scored) {
		return []*ScoredPost{}
	}
	end := offset + limit
	if end > len(scored) {
		end = len(scored)
	}
	return scored[offset:end]
}

// normalizePaging applies the documented caller defaults.
func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return page, limit
}
