// Package activity aggregates heterogeneous user actions into deduplicated,
// time-ordered feeds: a personal feed built from the user's own collections
// and a social feed fanned out across followed users.
package activity

import (
	"context"
	"fmt"
	"sort"

	"serieer/internal/models"

	"github.com/sirupsen/logrus"
)

// CollectionReader exposes the per-user collections the personal feed merges.
type CollectionReader interface {
	Collection(ctx context.Context, userID string, col models.Collection) ([]models.WatchRecord, error)
	UserReviews(ctx context.Context, userID string) ([]models.Review, error)
}

type Aggregator struct {
	collections CollectionReader
	events      EventQuerier
	logger      *logrus.Logger
}

func NewAggregator(collections CollectionReader, events EventQuerier, logger *logrus.Logger) *Aggregator {
	return &Aggregator{collections: collections, events: events, logger: logger}
}

// PersonalFeed merges the user's reviewed, watched, watchlist and liked
// activity, sorted newest first, with consecutive watchlist additions for
// the same season collapsed into basket entries.
func (a *Aggregator) PersonalFeed(ctx context.Context, userID string) ([]models.FeedEntry, error) {
	if userID == "" {
		return nil, nil
	}

	var merged []models.ActivityEvent

	for col, typ := range map[models.Collection]models.EventType{
		models.CollectionWatched:   models.EventWatched,
		models.CollectionWatchlist: models.EventWatchlistAdded,
		models.CollectionLiked:     models.EventLiked,
	} {
		records, err := a.collections.Collection(ctx, userID, col)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s collection: %w", col, err)
		}
		for _, rec := range records {
			merged = append(merged, models.ActivityEvent{
				ID:            fmt.Sprintf("%s:%s", typ, rec.TargetKey()),
				UserID:        userID,
				Type:          typ,
				SeriesID:      rec.SeriesID,
				SeriesName:    rec.Name,
				SeasonNumber:  rec.SeasonNumber,
				EpisodeNumber: rec.EpisodeNumber,
				PosterPath:    rec.PosterPath,
				Timestamp:     rec.Timestamp,
			})
		}
	}

	reviews, err := a.collections.UserReviews(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}
	for _, review := range reviews {
		merged = append(merged, models.ActivityEvent{
			ID:            review.ID,
			UserID:        userID,
			Type:          models.EventReviewed,
			SeriesID:      review.SeriesID,
			SeriesName:    review.SeriesName,
			SeasonNumber:  review.SeasonNumber,
			EpisodeNumber: review.EpisodeNumber,
			Rating:        review.Rating,
			Snippet:       review.Text,
			PosterPath:    review.PosterPath,
			Timestamp:     review.CreatedAt,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	return GroupBaskets(merged), nil
}

// GroupBaskets scans an already-sorted event list once and collapses runs of
// consecutive watchlist_added events sharing (series, season) into one
// synthetic basket entry carrying the constituent episode list. The run
// breaks as soon as the next entry differs in type, series or season.
func GroupBaskets(events []models.ActivityEvent) []models.FeedEntry {
	var entries []models.FeedEntry
	var basket *models.FeedEntry

	flush := func() {
		if basket != nil {
			entries = append(entries, *basket)
			basket = nil
		}
	}

	for _, event := range events {
		if event.Type != models.EventWatchlistAdded {
			flush()
			entries = append(entries, models.FeedEntry{Event: event})
			continue
		}

		if basket != nil &&
			basket.Event.SeriesID == event.SeriesID &&
			basket.Event.SeasonNumber == event.SeasonNumber {
			basket.Episodes = append(basket.Episodes, event)
			basket.EpisodeCount++
			continue
		}

		flush()
		basket = &models.FeedEntry{
			Event:        event,
			Basket:       true,
			EpisodeCount: 1,
			Episodes:     []models.ActivityEvent{event},
		}
	}
	flush()

	return entries
}
