package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/openlove/feedrank/internal/feed"
)

// pgUndefinedTable is the PostgreSQL error code for
// "relation does not exist" (42P01).
const pgUndefinedTable = "42P01"

// postColumns is the shared projection for post queries with the author
// join denormalized in.
const postColumns = `
	p.id, p.content, p.created_at, p.updated_at, p.user_id,
	p.likes_count, p.comments_count, p.shares_count,
	p.media_urls, p.media_types, p.media_thumbnails,
	p.visibility, p.location, p.latitude, p.longitude,
	p.audio_duration, p.poll_question, p.poll_options, p.poll_expires_at,
	u.id, u.username, u.name, u.avatar_url, u.is_verified, u.premium_type`

const postFrom = ` FROM posts p JOIN users u ON u.id = p.user_id`

// Postgres implements feed.Store on a PostgreSQL database via lib/pq.
// It is safe for concurrent use; *sql.DB manages pooling.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// GetProfile loads the requesting user's scoring attributes.
func (s *Postgres) GetProfile(ctx context.Context, userID string) (*feed.UserProfile, error) {
	const q = `
		SELECT id, latitude, longitude, interests, premium_type, is_verified
		FROM users
		WHERE id = $1`

	var (
		u         feed.UserProfile
		lat, lng  sql.NullFloat64
		interests pq.StringArray
		tier      sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, userID).Scan(
		&u.ID, &lat, &lng, &interests, &tier, &u.IsVerified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user %s: %w", userID, err)
	}

	if lat.Valid {
		u.Latitude = &lat.Float64
	}
	if lng.Valid {
		u.Longitude = &lng.Float64
	}
	u.Interests = interests
	u.PremiumType = feed.PremiumTier(tier.String)
	if u.PremiumType == "" {
		u.PremiumType = feed.TierFree
	}
	return &u, nil
}

// ListCandidates returns up to limit public posts authored by other
// users, newest first, with the author join.
func (s *Postgres) ListCandidates(ctx context.Context, excludeUserID string, limit int) ([]*feed.CandidatePost, error) {
	q := `SELECT` + postColumns + postFrom + `
		WHERE p.user_id <> $1 AND p.visibility = 'public'
		ORDER BY p.created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, q, excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListFallback returns a plain newest-first window of public posts with
// no author exclusion. An absent posts relation yields an empty list
// rather than an error: the degraded path must never throw.
func (s *Postgres) ListFallback(ctx context.Context, offset, limit int) ([]*feed.CandidatePost, error) {
	q := `SELECT` + postColumns + postFrom + `
		WHERE p.visibility = 'public'
		ORDER BY p.created_at DESC
		OFFSET $1 LIMIT $2`

	rows, err := s.db.QueryContext(ctx, q, offset, limit)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable {
			return []*feed.CandidatePost{}, nil
		}
		return nil, fmt.Errorf("query fallback posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// FollowsAnyone reports whether the user has any follow relationship.
func (s *Postgres) FollowsAnyone(ctx context.Context, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, q, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("query follow existence: %w", err)
	}
	return exists, nil
}

// ListFollowingPosts returns a newest-first window of posts authored by
// followed users. Pagination is pushed to the query since this path
// applies no in-memory rescoring.
func (s *Postgres) ListFollowingPosts(ctx context.Context, userID string, offset, limit int) ([]*feed.CandidatePost, error) {
	q := `SELECT` + postColumns + postFrom + `
		JOIN follows f ON f.following_id = p.user_id
		WHERE f.follower_id = $1 AND p.visibility = 'public'
		ORDER BY p.created_at DESC
		OFFSET $2 LIMIT $3`

	rows, err := s.db.QueryContext(ctx, q, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query following posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListExplorePosts returns a window of posts excluding the requester's
// own, ordered by engagement then recency.
func (s *Postgres) ListExplorePosts(ctx context.Context, excludeUserID string, offset, limit int) ([]*feed.CandidatePost, error) {
	q := `SELECT` + postColumns + postFrom + `
		WHERE p.user_id <> $1 AND p.visibility = 'public'
		ORDER BY p.likes_count DESC, p.comments_count DESC, p.created_at DESC
		OFFSET $2 LIMIT $3`

	rows, err := s.db.QueryContext(ctx, q, excludeUserID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query explore posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// scanPosts scans the shared projection into CandidatePost values.
func scanPosts(rows *sql.Rows) ([]*feed.CandidatePost, error) {
	posts := []*feed.CandidatePost{}
	for rows.Next() {
		var (
			p                      feed.CandidatePost
			mediaURLs, mediaTypes  pq.StringArray
			mediaThumbs            pq.StringArray
			location               sql.NullString
			lat, lng               sql.NullFloat64
			audioDuration          sql.NullInt64
			pollQuestion           sql.NullString
			pollOptions            pq.StringArray
			pollExpiresAt          sql.NullTime
			authorName, authorTier sql.NullString
			avatarURL              sql.NullString
		)

		err := rows.Scan(
			&p.ID, &p.Content, &p.CreatedAt, &p.UpdatedAt, &p.UserID,
			&p.LikesCount, &p.CommentsCount, &p.SharesCount,
			&mediaURLs, &mediaTypes, &mediaThumbs,
			&p.Visibility, &location, &lat, &lng,
			&audioDuration, &pollQuestion, &pollOptions, &pollExpiresAt,
			&p.User.ID, &p.User.Username, &authorName, &avatarURL,
			&p.User.IsVerified, &authorTier,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		p.MediaURLs = mediaURLs
		p.MediaTypes = mediaTypes
		p.MediaThumbnails = mediaThumbs
		p.Location = location.String
		if lat.Valid {
			p.Latitude = &lat.Float64
		}
		if lng.Valid {
			p.Longitude = &lng.Float64
		}
		if audioDuration.Valid {
			d := int(audioDuration.Int64)
			p.AudioDuration = &d
		}
		p.User.Name = authorName.String
		p.User.AvatarURL = avatarURL.String
		p.User.PremiumType = feed.PremiumTier(authorTier.String)
		if p.User.PremiumType == "" {
			p.User.PremiumType = feed.TierFree
		}

		if pollQuestion.Valid && pollQuestion.String != "" {
			p.Poll = buildPoll(p.ID, pollQuestion.String, pollOptions, pollExpiresAt)
		}

		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// buildPoll assembles the denormalized poll sub-object from the post's
// poll columns. Vote tallies are owned by the interactions subsystem
// and arrive pre-aggregated elsewhere; here options start at zero.
func buildPoll(postID, question string, options pq.StringArray, expiresAt sql.NullTime) *feed.Poll {
	poll := &feed.Poll{
		ID:       postID,
		Question: question,
		Options:  make([]feed.PollOption, len(options)),
	}
	for i, text := range options {
		poll.Options[i] = feed.PollOption{
			ID:   fmt.Sprintf("%s-%d", postID, i),
			Text: text,
		}
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		poll.ExpiresAt = &t
	}
	return poll
}

// Ping verifies connectivity within the deadline. Used by readiness
// checks at startup.
func (s *Postgres) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}
