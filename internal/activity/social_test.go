package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"serieer/internal/models"
)

type fakeEvents struct {
	mu      sync.Mutex
	byUser  map[string][]models.ActivityEvent
	failIDs map[string]bool
	batches [][]string
}

func (f *fakeEvents) RecentEvents(ctx context.Context, userIDs []string, limit int) ([]models.ActivityEvent, error) {
	f.mu.Lock()
	f.batches = append(f.batches, userIDs)
	f.mu.Unlock()

	var events []models.ActivityEvent
	for _, id := range userIDs {
		if f.failIDs[id] {
			return nil, errors.New("batch query failed")
		}
		events = append(events, f.byUser[id]...)
	}
	return events, nil
}

func (f *fakeEvents) LatestEvent(ctx context.Context, userIDs []string) (*models.ActivityEvent, error) {
	var latest *models.ActivityEvent
	for _, id := range userIDs {
		for i := range f.byUser[id] {
			event := f.byUser[id][i]
			if latest == nil || event.Timestamp.After(latest.Timestamp) {
				latest = &event
			}
		}
	}
	return latest, nil
}

func userIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%02d", i)
	}
	return ids
}

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name      string
		ids       int
		wantSizes []int
	}{
		{"empty", 0, nil},
		{"under one batch", 7, []int{7}},
		{"exact batch", 10, []int{10}},
		{"three batches", 23, []int{10, 10, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkIDs(userIDs(tt.ids), maxIDsPerQuery)
			if len(chunks) != len(tt.wantSizes) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.wantSizes))
			}
			for i, want := range tt.wantSizes {
				if len(chunks[i]) != want {
					t.Errorf("chunk %d size = %d, want %d", i, len(chunks[i]), want)
				}
			}
		})
	}
}

func TestSocialFeedFanOut(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := userIDs(23)

	events := &fakeEvents{byUser: map[string][]models.ActivityEvent{}}
	for i, id := range ids {
		events.byUser[id] = []models.ActivityEvent{{
			ID:        fmt.Sprintf("e%02d", i),
			UserID:    id,
			Type:      models.EventWatched,
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
		}}
	}

	agg := NewAggregator(&fakeCollections{}, events, testLogger())
	feed, err := agg.SocialFeed(context.Background(), ids, false)
	if err != nil {
		t.Fatalf("SocialFeed() error = %v", err)
	}

	if len(events.batches) != 3 {
		t.Errorf("ran %d batch queries, want 3", len(events.batches))
	}
	if len(feed) != 23 {
		t.Fatalf("got %d events, want 23", len(feed))
	}

	seen := map[string]bool{}
	for i, event := range feed {
		if seen[event.ID] {
			t.Errorf("duplicate event id %q in feed", event.ID)
		}
		seen[event.ID] = true
		if i > 0 && feed[i-1].Timestamp.Before(event.Timestamp) {
			t.Errorf("feed out of order at index %d", i)
		}
	}
}

func TestSocialFeedDeduplicates(t *testing.T) {
	base := time.Now()
	shared := models.ActivityEvent{ID: "dup", UserID: "user-00", Type: models.EventWatched, Timestamp: base}

	events := &fakeEvents{byUser: map[string][]models.ActivityEvent{
		"user-00": {shared, shared},
	}}

	agg := NewAggregator(&fakeCollections{}, events, testLogger())
	feed, err := agg.SocialFeed(context.Background(), []string{"user-00"}, false)
	if err != nil {
		t.Fatalf("SocialFeed() error = %v", err)
	}
	if len(feed) != 1 {
		t.Errorf("got %d events, want 1 after dedup", len(feed))
	}
}

func TestSocialFeedPartialBatchFailure(t *testing.T) {
	base := time.Now()
	ids := userIDs(12)

	events := &fakeEvents{
		byUser:  map[string][]models.ActivityEvent{},
		failIDs: map[string]bool{"user-00": true},
	}
	for i, id := range ids {
		events.byUser[id] = []models.ActivityEvent{{
			ID:        fmt.Sprintf("e%02d", i),
			UserID:    id,
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
		}}
	}

	agg := NewAggregator(&fakeCollections{}, events, testLogger())
	feed, err := agg.SocialFeed(context.Background(), ids, false)
	if err != nil {
		t.Fatalf("SocialFeed() error = %v, want partial result", err)
	}

	// First batch of ten failed; the trailing batch of two survives.
	if len(feed) != 2 {
		t.Errorf("got %d events, want 2 from the surviving batch", len(feed))
	}
}

func TestSocialFeedReviewsOnly(t *testing.T) {
	base := time.Now()
	events := &fakeEvents{byUser: map[string][]models.ActivityEvent{
		"user-00": {
			{ID: "e1", Type: models.EventWatched, Timestamp: base},
			{ID: "e2", Type: models.EventReviewed, Timestamp: base.Add(-time.Minute)},
			{ID: "e3", Type: models.EventLiked, Timestamp: base.Add(-2 * time.Minute)},
		},
	}}

	agg := NewAggregator(&fakeCollections{}, events, testLogger())
	feed, err := agg.SocialFeed(context.Background(), []string{"user-00"}, true)
	if err != nil {
		t.Fatalf("SocialFeed() error = %v", err)
	}
	if len(feed) != 1 || feed[0].Type != models.EventReviewed {
		t.Errorf("reviews-only feed = %v, want single reviewed event", feed)
	}
}

func TestSocialFeedReviewsOnlyRespectsRanking(t *testing.T) {
	base := time.Now()
	events := &fakeEvents{byUser: map[string][]models.ActivityEvent{}}

	// Fifty newer non-review events push the lone review out of the ranked
	// window; the friend view filters the window, it does not re-rank.
	for i := 0; i < socialFeedSize; i++ {
		events.byUser["user-00"] = append(events.byUser["user-00"], models.ActivityEvent{
			ID:        fmt.Sprintf("w%02d", i),
			Type:      models.EventWatched,
			Timestamp: base.Add(-time.Duration(i) * time.Second),
		})
	}
	events.byUser["user-00"] = append(events.byUser["user-00"], models.ActivityEvent{
		ID:        "old-review",
		Type:      models.EventReviewed,
		Timestamp: base.Add(-time.Hour),
	})

	agg := NewAggregator(&fakeCollections{}, events, testLogger())
	feed, err := agg.SocialFeed(context.Background(), []string{"user-00"}, true)
	if err != nil {
		t.Fatalf("SocialFeed() error = %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("got %d events, want none: the review sits below the ranked window", len(feed))
	}
}

func TestSocialFeedTruncates(t *testing.T) {
	base := time.Now()
	events := &fakeEvents{byUser: map[string][]models.ActivityEvent{}}
	for i := 0; i < 60; i++ {
		events.byUser["user-00"] = append(events.byUser["user-00"], models.ActivityEvent{
			ID:        fmt.Sprintf("e%02d", i),
			Timestamp: base.Add(-time.Duration(i) * time.Second),
		})
	}

	agg := NewAggregator(&fakeCollections{}, events, testLogger())
	feed, err := agg.SocialFeed(context.Background(), []string{"user-00"}, false)
	if err != nil {
		t.Fatalf("SocialFeed() error = %v", err)
	}
	if len(feed) != socialFeedSize {
		t.Errorf("got %d events, want %d", len(feed), socialFeedSize)
	}
}

func TestSocialFeedNoFollowing(t *testing.T) {
	agg := NewAggregator(&fakeCollections{}, &fakeEvents{}, testLogger())
	feed, err := agg.SocialFeed(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("SocialFeed() error = %v", err)
	}
	if feed != nil {
		t.Errorf("feed with no following = %v, want nil", feed)
	}
}
