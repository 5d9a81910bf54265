package activity

import (
	"context"
	"sort"
	"sync"

	"serieer/internal/models"
)

// The event store rejects membership queries over more than ten ids, so
// fan-out partitions the following list accordingly.
const (
	maxIDsPerQuery = 10
	socialFeedSize = 50
)

// EventQuerier reads the flat activity-event collection.
type EventQuerier interface {
	RecentEvents(ctx context.Context, userIDs []string, limit int) ([]models.ActivityEvent, error)
	LatestEvent(ctx context.Context, userIDs []string) (*models.ActivityEvent, error)
}

// SocialFeed fans out one time-ordered query per batch of up to ten
// followed ids, merges the results, deduplicates by event id, re-sorts
// globally and truncates to the top entries. A failed batch is logged and
// excluded; it never fails the whole aggregation.
func (a *Aggregator) SocialFeed(ctx context.Context, followingIDs []string, reviewsOnly bool) ([]models.ActivityEvent, error) {
	if len(followingIDs) == 0 {
		return nil, nil
	}

	batches := chunkIDs(followingIDs, maxIDsPerQuery)
	results := make([][]models.ActivityEvent, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()
			events, err := a.events.RecentEvents(ctx, batch, socialFeedSize)
			if err != nil {
				a.logger.WithError(err).WithField("batch", i).Warn("Social feed batch failed, skipping")
				return
			}
			results[i] = events
		}(i, batch)
	}
	wg.Wait()

	// Per-batch order is server-sorted but not globally correct, so merge
	// through a keyed map and re-sort.
	byID := make(map[string]models.ActivityEvent)
	for _, events := range results {
		for _, event := range events {
			byID[event.ID] = event
		}
	}

	merged := make([]models.ActivityEvent, 0, len(byID))
	for _, event := range byID {
		merged = append(merged, event)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > socialFeedSize {
		merged = merged[:socialFeedSize]
	}

	// The friend view narrows the already-ranked window rather than ranking
	// reviews on their own, so it shows the reviews among the top entries.
	if reviewsOnly {
		filtered := merged[:0]
		for _, event := range merged {
			if event.Type == models.EventReviewed {
				filtered = append(filtered, event)
			}
		}
		merged = filtered
	}
	return merged, nil
}

// chunkIDs splits ids into consecutive slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
