package cache

import (
	"context"
	"testing"
	"time"

	"github.com/openlove/feedrank/internal/feed"
)

func TestKey(t *testing.T) {
	k := feed.PageKey{UserID: "abc-123", Kind: feed.KindForYou, Page: 3}
	got := Key(k)
	want := "feed:abc-123:for-you:3"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory(time.Minute)
	key := feed.PageKey{UserID: "u1", Kind: feed.KindForYou, Page: 1}

	isFollowing := true
	page := &feed.FeedPage{
		Data: []*feed.ScoredPost{
			{CandidatePost: feed.CandidatePost{ID: "p1", UserID: "u2"}, Score: 150},
		},
		HasMore:           true,
		NextPage:          2,
		Total:             1,
		IsFollowingAnyone: &isFollowing,
	}

	if err := c.Set(context.Background(), key, page); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := c.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if len(got.Data) != 1 || got.Data[0].ID != "p1" || got.Data[0].Score != 150 {
		t.Errorf("round-tripped page lost post data: %+v", got.Data)
	}
	if !got.HasMore || got.NextPage != 2 || got.Total != 1 {
		t.Errorf("round-tripped paging fields wrong: %+v", got)
	}
	if got.IsFollowingAnyone == nil || !*got.IsFollowingAnyone {
		t.Error("round-tripped page lost isFollowingAnyone")
	}
}

func TestMemory_MissOnUnknownKey(t *testing.T) {
	c := NewMemory(time.Minute)

	_, ok, err := c.Get(context.Background(), feed.PageKey{UserID: "nobody", Kind: feed.KindExplore, Page: 1})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected a miss for an unknown key")
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(30 * time.Second)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := feed.PageKey{UserID: "u1", Kind: feed.KindFollowing, Page: 1}
	if err := c.Set(context.Background(), key, &feed.FeedPage{NextPage: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok, _ := c.Get(context.Background(), key); !ok {
		t.Fatal("expected a hit before expiry")
	}

	now = now.Add(31 * time.Second)
	if _, ok, _ := c.Get(context.Background(), key); ok {
		t.Error("expected a miss after the TTL elapsed")
	}
}

func TestMemory_Invalidate(t *testing.T) {
	c := NewMemory(time.Minute)
	key := feed.PageKey{UserID: "u1", Kind: feed.KindForYou, Page: 1}

	if err := c.Set(context.Background(), key, &feed.FeedPage{NextPage: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}

	c.Invalidate(key)
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Invalidate, want 0", c.Len())
	}
	if _, ok, _ := c.Get(context.Background(), key); ok {
		t.Error("expected a miss after Invalidate")
	}
}

func TestMemory_PagesAreIndependentPerKey(t *testing.T) {
	c := NewMemory(time.Minute)
	k1 := feed.PageKey{UserID: "u1", Kind: feed.KindForYou, Page: 1}
	k2 := feed.PageKey{UserID: "u1", Kind: feed.KindForYou, Page: 2}

	if err := c.Set(context.Background(), k1, &feed.FeedPage{NextPage: 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, ok, _ := c.Get(context.Background(), k2); ok {
		t.Error("page 2 should not be populated by a page 1 write")
	}
}
