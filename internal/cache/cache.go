// Package cache provides feed page cache implementations: a Redis cache
// for production and an in-memory cache for tests. Pages are serialized
// with CBOR for compact storage; JSON only appears at the HTTP edge.
package cache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/openlove/feedrank/internal/feed"
)

// DefaultTTL is how long a cached feed page stays valid.
const DefaultTTL = 60 // seconds

// Key renders a PageKey as the cache key string.
// Format: feed:{userID}:{kind}:{page}
func Key(k feed.PageKey) string {
	return fmt.Sprintf("feed:%s:%s:%d", k.UserID, k.Kind, k.Page)
}

// encodePage serializes a feed page to CBOR.
func encodePage(page *feed.FeedPage) ([]byte, error) {
	data, err := cbor.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("encode feed page: %w", err)
	}
	return data, nil
}

// decodePage deserializes a CBOR-encoded feed page.
func decodePage(data []byte) (*feed.FeedPage, error) {
	var page feed.FeedPage
	if err := cbor.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode feed page: %w", err)
	}
	return &page, nil
}
