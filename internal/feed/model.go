// Package feed implements the relevance ranking engine behind the
// personalized, following, and explore feeds.
package feed

import "time"

// FeedKind selects which candidate-fetch strategy and scoring path applies.
type FeedKind string

// Supported feed kinds.
const (
	KindForYou    FeedKind = "for-you"
	KindFollowing FeedKind = "following"
	KindExplore   FeedKind = "explore"
)

// PremiumTier is a user's subscription tier.
type PremiumTier string

// Known premium tiers, ordered by ranking value.
const (
	TierFree    PremiumTier = "free"
	TierGold    PremiumTier = "gold"
	TierDiamond PremiumTier = "diamond"
	TierCouple  PremiumTier = "couple"
)

// UserProfile carries the requesting user's attributes consumed by scoring.
// It is a read-only input; the account subsystem owns it.
type UserProfile struct {
	ID          string      `json:"id"`
	Latitude    *float64    `json:"latitude,omitempty"`
	Longitude   *float64    `json:"longitude,omitempty"`
	Interests   []string    `json:"interests,omitempty"`
	PremiumType PremiumTier `json:"premium_type"`
	IsVerified  bool        `json:"is_verified"`
}

// Author is the denormalized user sub-object attached to each post.
type Author struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Name        string      `json:"name"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	IsVerified  bool        `json:"is_verified"`
	PremiumType PremiumTier `json:"premium_type"`
}

// PollOption is a single poll choice with vote tallies.
type PollOption struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	VotesCount int     `json:"votes_count"`
	Percentage float64 `json:"percentage"`
}

// Poll is the optional poll sub-structure on a post.
type Poll struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Options        []PollOption `json:"options"`
	TotalVotes     int          `json:"total_votes"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	MultipleChoice bool         `json:"multiple_choice"`
	UserHasVoted   bool         `json:"user_has_voted"`
	UserVotes      []string     `json:"user_votes,omitempty"`
}

// CandidatePost is a feed-eligible post as read from the data source.
// Read-only input; the posting subsystem owns it.
type CandidatePost struct {
	ID              string     `json:"id"`
	Content         string     `json:"content"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	UserID          string     `json:"user_id"`
	LikesCount      int        `json:"likes_count"`
	CommentsCount   int        `json:"comments_count"`
	SharesCount     int        `json:"shares_count"`
	MediaURLs       []string   `json:"media_urls,omitempty"`
	MediaTypes      []string   `json:"media_types,omitempty"`
	MediaThumbnails []string   `json:"media_thumbnails,omitempty"`
	Visibility      string     `json:"visibility"`
	Location        string     `json:"location,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	AudioDuration   *int       `json:"audio_duration,omitempty"`
	Poll            *Poll      `json:"poll,omitempty"`
	User            Author     `json:"user"`
}

// ScoredPost is a CandidatePost augmented with the computed relevance
// score and, when the location component applies, the distance to the
// requesting user. Constructed per request, never persisted.
type ScoredPost struct {
	CandidatePost

	// Score is the rounded composite relevance score. Zero on the
	// following/explore paths, which do not apply weighted scoring.
	Score int `json:"algorithm_score,omitempty"`

	// Distance is the haversine distance to the requester in km.
	Distance float64 `json:"distance,omitempty"`

	// LocationGeohash is a coarse (precision 6) geohash of the post
	// location for public display without pinpointing exact venues.
	LocationGeohash string `json:"location_geohash,omitempty"`
}

// FeedPage is the engine's output: one relevance-ordered page of posts
// plus pagination metadata. Ephemeral, cached under (userID, kind, page).
type FeedPage struct {
	Data    []*ScoredPost `json:"data"`
	HasMore bool          `json:"hasMore"`
	// NextPage is the page index a caller should request next.
	NextPage int `json:"nextPage"`
	// Total reflects the item count of this page, not a dataset
	// cardinality. Existing consumers depend on this semantics.
	Total int `json:"total"`

	// CacheHit reports whether this page was served from the cache.
	// Set on the response, never stored.
	CacheHit bool `json:"cacheHit"`

	// IsFollowingAnyone is populated only by the following feed so
	// callers can tell "no connections" apart from "connections have
	// not posted".
	IsFollowingAnyone *bool `json:"isFollowingAnyone,omitempty"`
}

// PageKey identifies one cached feed page.
type PageKey struct {
	UserID string
	Kind   FeedKind
	Page   int
}

// Next returns the key for the page after this one.
func (k PageKey) Next() PageKey {
	return PageKey{UserID: k.UserID, Kind: k.Kind, Page: k.Page + 1}
}
