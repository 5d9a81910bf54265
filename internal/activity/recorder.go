package activity

import (
	"context"
	"fmt"
	"time"

	"serieer/internal/models"

	"github.com/sirupsen/logrus"
)

// Retention windows by watched scope; everything else falls back to the
// general window. Cleanup is lazy, a small batch per write.
const (
	episodeRetention  = 7 * 24 * time.Hour
	seasonRetention   = 30 * 24 * time.Hour
	seriesRetention   = 90 * 24 * time.Hour
	fallbackRetention = 60 * 24 * time.Hour
	cleanupBatchSize  = 10
)

// EventStore is the write side of the activity-event collection.
type EventStore interface {
	InsertEvent(ctx context.Context, event models.ActivityEvent) error
	// DeleteEventsMatching removes events of one type for a user and series.
	// seasonNumber < 0 matches any season; episodesOnly restricts the delete
	// to episode-scope events.
	DeleteEventsMatching(ctx context.Context, userID string, typ models.EventType, seriesID, seasonNumber int, episodesOnly bool) error
	OldestEvents(ctx context.Context, userID string, limit int) ([]models.ActivityEvent, error)
	DeleteEventsByID(ctx context.Context, ids []string) error
}

// Recorder writes activity events with the deduplication and retention
// rules applied around each insert.
type Recorder struct {
	store  EventStore
	logger *logrus.Logger
	now    func() time.Time
}

func NewRecorder(store EventStore, logger *logrus.Logger) *Recorder {
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Record inserts the event after applying its replacement rules, then runs
// a small lazy retention sweep over the user's oldest events. Sweep
// failures are logged only; the write itself already succeeded.
func (r *Recorder) Record(ctx context.Context, event models.ActivityEvent) error {
	if event.UserID == "" {
		return nil
	}

	switch {
	case event.Type == models.EventReviewed && event.Scope() != models.ScopeEpisode:
		// A re-rating replaces the previous reviewed entry for the same
		// series and season instead of stacking next to it.
		if err := r.store.DeleteEventsMatching(ctx, event.UserID, models.EventReviewed, event.SeriesID, event.SeasonNumber, false); err != nil {
			return fmt.Errorf("failed to replace prior reviewed event: %w", err)
		}
	case event.Type == models.EventWatched && event.Scope() == models.ScopeSeason:
		// Completing a season consolidates its per-episode watched noise.
		if err := r.store.DeleteEventsMatching(ctx, event.UserID, models.EventWatched, event.SeriesID, event.SeasonNumber, true); err != nil {
			return fmt.Errorf("failed to consolidate episode events: %w", err)
		}
	case event.Type == models.EventPosterUpdated:
		// One poster event per series: re-choosing replaces the previous one
		// whichever season it was for.
		if err := r.store.DeleteEventsMatching(ctx, event.UserID, models.EventPosterUpdated, event.SeriesID, -1, false); err != nil {
			return fmt.Errorf("failed to replace prior poster event: %w", err)
		}
	}

	if err := r.store.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to insert activity event: %w", err)
	}

	if err := r.sweep(ctx, event.UserID); err != nil {
		r.logger.WithError(err).Warn("Activity retention sweep failed")
	}
	return nil
}

func (r *Recorder) sweep(ctx context.Context, userID string) error {
	oldest, err := r.store.OldestEvents(ctx, userID, cleanupBatchSize)
	if err != nil {
		return err
	}

	now := r.now()
	var expired []string
	for _, event := range oldest {
		if now.Sub(event.Timestamp) > retentionFor(event) {
			expired = append(expired, event.ID)
		}
	}
	if len(expired) == 0 {
		return nil
	}

	if err := r.store.DeleteEventsByID(ctx, expired); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"expired": len(expired),
	}).Debug("Expired activity events removed")
	return nil
}

func retentionFor(event models.ActivityEvent) time.Duration {
	if event.Type != models.EventWatched {
		return fallbackRetention
	}
	switch event.Scope() {
	case models.ScopeEpisode:
		return episodeRetention
	case models.ScopeSeason:
		return seasonRetention
	default:
		return seriesRetention
	}
}
