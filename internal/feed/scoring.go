package feed

import (
	"math"
	"time"

	"github.com/openlove/feedrank/internal/geo"
)

// Scoring constants.
const (
	// BaseScore is the floor every candidate starts from. Weighted
	// components are additive deltas on top of it.
	BaseScore = 100.0

	// NeutralLocationScore and NeutralInterestScore are placeholder
	// component values pending real geo/interest data wiring. They keep
	// the weight table intact while contributing uniformly to every
	// post.
	NeutralLocationScore = 50.0
	NeutralInterestScore = 50.0

	// RecencyWindowHours is the linear-decay horizon for the recency
	// bonus: 30 days, in hours.
	RecencyWindowHours = 24 * 30

	// TieBreakBand is the rounded-score difference below which two
	// posts are ordered randomly instead of deterministically.
	TieBreakBand = 10

	// distanceThreshold gates the distance computation: the distance
	// field is only populated when the location component exceeds it.
	distanceThreshold = 30.0

	// geoDecayKm is the half-score distance for geodistance location
	// scoring: a post geoDecayKm away scores 50, decaying hyperbolically
	// toward 0.
	geoDecayKm = 50.0
)

// premiumScores maps subscription tiers to their component score.
var premiumScores = map[PremiumTier]float64{
	TierCouple:  100,
	TierDiamond: 80,
	TierGold:    60,
	TierFree:    20,
}

// ActivityScore normalizes post engagement to [0, 100].
// Engagement counts comments double and shares triple.
func ActivityScore(likes, comments, shares int) float64 {
	engagement := float64(likes + 2*comments + 3*shares)
	return math.Min(100, engagement*2)
}

// PremiumScore maps the author's tier to its component score.
// Unknown tiers score like free accounts.
func PremiumScore(tier PremiumTier) float64 {
	if s, ok := premiumScores[tier]; ok {
		return s
	}
	return premiumScores[TierFree]
}

// VerificationScore scores verified authors at 100, others at 0.
func VerificationScore(verified bool) float64 {
	if verified {
		return 100
	}
	return 0
}

// RecencyScore decays linearly from 100 at creation time to 0 at the
// 30-day horizon.
func RecencyScore(createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	return math.Max(0, 100*(1-hours/RecencyWindowHours))
}

// LocationScore is the location component for a candidate. With
// geoRanking disabled (the production default while the coordinate
// backfill is pending) every post receives the neutral constant.
// Enabled, posts score by proximity to the requester, decaying from 100
// at zero distance to 50 at geoDecayKm; either side missing coordinates
// falls back to the neutral constant.
func LocationScore(profile *UserProfile, post *CandidatePost, geoRanking bool) float64 {
	if !geoRanking ||
		profile.Latitude == nil || profile.Longitude == nil ||
		post.Latitude == nil || post.Longitude == nil {
		return NeutralLocationScore
	}

	d := geo.Haversine(*profile.Latitude, *profile.Longitude, *post.Latitude, *post.Longitude)
	return 100 / (1 + d/geoDecayKm)
}

// InterestScore is the interest-overlap component. Interest data is not
// wired into ranking yet; every post receives the neutral constant.
func InterestScore(_ *UserProfile, _ *CandidatePost) float64 {
	return NeutralInterestScore
}

// Scorer computes composite relevance scores for candidate posts.
type Scorer struct {
	weights    *Weights
	now        func() time.Time
	geoRanking bool
}

// NewScorer returns a Scorer using the given weights. A nil weights
// pointer selects the defaults. now supplies the clock; nil means
// time.Now. geoRanking switches the location component from the neutral
// constant to real geodistance scoring.
func NewScorer(weights *Weights, now func() time.Time, geoRanking bool) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	if now == nil {
		now = time.Now
	}
	return &Scorer{weights: weights, now: now, geoRanking: geoRanking}
}

// Score computes the composite relevance score for one candidate and
// returns the post annotated with the rounded score and, when the
// location component exceeds the threshold, the haversine distance to
// the requester. Missing coordinates default to 0,0 to match the
// currently-dormant geo path.
func (s *Scorer) Score(profile *UserProfile, post *CandidatePost) *ScoredPost {
	w := s.weights

	locationScore := LocationScore(profile, post, s.geoRanking)
	interestScore := InterestScore(profile, post)
	activityScore := ActivityScore(post.LikesCount, post.CommentsCount, post.SharesCount)
	premiumScore := PremiumScore(post.User.PremiumType)
	verifyScore := VerificationScore(post.User.IsVerified)
	recencyScore := RecencyScore(post.CreatedAt, s.now())

	raw := BaseScore +
		locationScore*w.Location +
		interestScore*w.Interests +
		activityScore*w.Activity +
		premiumScore*w.Premium +
		verifyScore*w.Verification +
		recencyScore*w.RecencyBonus

	scored := &ScoredPost{
		CandidatePost: *post,
		Score:         int(math.Round(raw)),
	}

	if locationScore > distanceThreshold {
		scored.Distance = geo.Haversine(
			coord(profile.Latitude), coord(profile.Longitude),
			coord(post.Latitude), coord(post.Longitude),
		)
	}

	if post.Latitude != nil && post.Longitude != nil {
		// Encode at full precision, expose only the coarse prefix;
		// exact venues stay private.
		full := geo.Encode(*post.Latitude, *post.Longitude, geo.FullPrecision)
		scored.LocationGeohash = geo.Round(full, geo.DefaultPrecision)
	}

	return scored
}

// coord dereferences an optional coordinate, defaulting to 0.
func coord(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
