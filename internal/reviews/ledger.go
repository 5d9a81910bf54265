// Package reviews owns CRUD over the flat review collection, holding the
// one-review-per-(user, target, scope) invariant and forwarding create and
// delete events to the achievement manager.
package reviews

import (
	"context"
	"fmt"
	"time"

	"serieer/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the review persistence the ledger drives.
type Store interface {
	FindReview(ctx context.Context, userID string, seriesID int, scope models.Scope, seasonNumber, episodeNumber int) (*models.Review, error)
	GetReview(ctx context.Context, id string) (*models.Review, error)
	InsertReview(ctx context.Context, review *models.Review) error
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id string) error
	ToggleReviewLike(ctx context.Context, id, userID string) (bool, error)
}

// Recorder appends activity events for the personal feed.
type Recorder interface {
	Record(ctx context.Context, event models.ActivityEvent) error
}

type Ledger struct {
	store      Store
	onSubmit   func(ctx context.Context, review *models.Review) error
	onDelete   func(ctx context.Context, review *models.Review) error
	recorder   Recorder
	logger     *logrus.Logger
	now        func() time.Time
	generateID func() string
}

// NewLedger wires the ledger to its store, the achievement callbacks and the
// activity recorder. recorder may be nil when feed mirroring is not wanted.
func NewLedger(
	store Store,
	onSubmit func(ctx context.Context, review *models.Review) error,
	onDelete func(ctx context.Context, review *models.Review) error,
	recorder Recorder,
	logger *logrus.Logger,
) *Ledger {
	return &Ledger{
		store:      store,
		onSubmit:   onSubmit,
		onDelete:   onDelete,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
		generateID: func() string { return uuid.NewString() },
	}
}

// Submission carries everything needed to create or update a review.
type Submission struct {
	UserID        string
	UserName      string
	PhotoURL      string
	SeriesID      int
	SeriesName    string
	PosterPath    string
	Scope         models.Scope
	SeasonNumber  int
	EpisodeNumber int
	Rating        float64
	Text          string
}

// Submit creates a review, or updates the existing one for the same
// (user, series, scope, season, episode) tuple in place, preserving its
// creation time and likes. Only a freshly created review reaches the
// achievement manager.
func (l *Ledger) Submit(ctx context.Context, sub Submission) (*models.Review, error) {
	if sub.UserID == "" {
		// Not signed in: silent no-op.
		return nil, nil
	}
	if sub.Rating < 0 || sub.Rating > 5 {
		return nil, fmt.Errorf("rating %v out of range", sub.Rating)
	}

	existing, err := l.store.FindReview(ctx, sub.UserID, sub.SeriesID, sub.Scope, sub.SeasonNumber, sub.EpisodeNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing review: %w", err)
	}

	now := l.now()

	if existing != nil {
		existing.Rating = sub.Rating
		existing.Text = sub.Text
		existing.UpdatedAt = now
		if err := l.store.UpdateReview(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
		l.recordReviewed(ctx, existing)
		return existing, nil
	}

	review := &models.Review{
		ID:            l.generateID(),
		UserID:        sub.UserID,
		UserName:      sub.UserName,
		PhotoURL:      sub.PhotoURL,
		SeriesID:      sub.SeriesID,
		SeriesName:    sub.SeriesName,
		PosterPath:    sub.PosterPath,
		Scope:         sub.Scope,
		SeasonNumber:  sub.SeasonNumber,
		EpisodeNumber: sub.EpisodeNumber,
		Rating:        sub.Rating,
		Text:          sub.Text,
		LikedBy:       []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := l.store.InsertReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	if l.onSubmit != nil {
		if err := l.onSubmit(ctx, review); err != nil {
			// The review itself is saved; badge bookkeeping failures are
			// logged, not surfaced.
			l.logger.WithError(err).Warn("Review submitted but achievement update failed")
		}
	}

	l.recordReviewed(ctx, review)
	return review, nil
}

// recordReviewed mirrors a submission into the flat event store so it shows
// up in followers' feeds. Re-rating the same target replaces the earlier
// event there rather than stacking; that rule lives in the recorder.
func (l *Ledger) recordReviewed(ctx context.Context, review *models.Review) {
	if l.recorder == nil {
		return
	}

	event := models.ActivityEvent{
		ID:            l.generateID(),
		UserID:        review.UserID,
		Username:      review.UserName,
		PhotoURL:      review.PhotoURL,
		Type:          models.EventReviewed,
		SeriesID:      review.SeriesID,
		SeriesName:    review.SeriesName,
		SeasonNumber:  review.SeasonNumber,
		EpisodeNumber: review.EpisodeNumber,
		Rating:        review.Rating,
		Snippet:       review.Text,
		PosterPath:    review.PosterPath,
		Timestamp:     review.UpdatedAt,
	}
	if err := l.recorder.Record(ctx, event); err != nil {
		l.logger.WithError(err).Warn("Failed to mirror reviewed activity")
	}
}

// Delete removes the review and forwards the deletion to the achievement
// manager so badge revocation rules run.
func (l *Ledger) Delete(ctx context.Context, reviewID string) error {
	review, err := l.store.GetReview(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to load review %s: %w", reviewID, err)
	}
	if review == nil {
		return nil
	}

	if err := l.store.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", reviewID, err)
	}

	if l.onDelete != nil {
		if err := l.onDelete(ctx, review); err != nil {
			l.logger.WithError(err).Warn("Review deleted but badge revocation failed")
		}
	}
	return nil
}

// ToggleLike flips userID's membership in the review's liked-by set and
// mirrors a liked_review event onto the liking user's own activity so it
// shows up in their personal feed.
func (l *Ledger) ToggleLike(ctx context.Context, reviewID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	liked, err := l.store.ToggleReviewLike(ctx, reviewID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle review like: %w", err)
	}

	if liked && l.recorder != nil {
		review, err := l.store.GetReview(ctx, reviewID)
		if err != nil || review == nil {
			l.logger.WithError(err).Warn("Liked review not found for activity mirror")
			return liked, nil
		}
		event := models.ActivityEvent{
			ID:            l.generateID(),
			UserID:        userID,
			Type:          models.EventLikedReview,
			SeriesID:      review.SeriesID,
			SeriesName:    review.SeriesName,
			SeasonNumber:  review.SeasonNumber,
			EpisodeNumber: review.EpisodeNumber,
			Snippet:       review.Text,
			PosterPath:    review.PosterPath,
			Timestamp:     l.now(),
		}
		if err := l.recorder.Record(ctx, event); err != nil {
			l.logger.WithError(err).Warn("Failed to mirror liked_review activity")
		}
	}

	return liked, nil
}
