// Package achievements applies completion results and review events to the
// achievement and star-badge collections. Every insert is guarded by an
// existence check on a deterministic key, so re-applying an event is a no-op.
package achievements

import (
	"context"
	"fmt"
	"time"

	"serieer/internal/models"
	"serieer/internal/progress"

	"github.com/sirupsen/logrus"
)

// WatchStore is the slice of the per-user store the manager needs.
type WatchStore interface {
	WatchedEpisodes(ctx context.Context, userID string, seriesID int) ([]models.WatchRecord, error)
	HasAchievement(ctx context.Context, userID string, key models.AchievementKey) (bool, error)
	AddAchievement(ctx context.Context, userID string, a models.Achievement) error
	HasStarBadge(ctx context.Context, userID string, seriesID int) (bool, error)
	AddStarBadge(ctx context.Context, userID string, b models.StarBadge) error
	RemoveStarBadge(ctx context.Context, userID string, seriesID int) error
	AddWatchRecord(ctx context.Context, userID string, col models.Collection, rec models.WatchRecord) error
}

// MetadataProvider supplies episode-count ground truth.
type MetadataProvider interface {
	GetSeries(ctx context.Context, id int) (*models.Series, error)
}

// ReviewIndex answers whether a user already holds qualifying reviews for a
// series, used to gate the first-review badge grant.
type ReviewIndex interface {
	QualifyingReviewCount(ctx context.Context, userID string, seriesID int) (int, error)
}

type Manager struct {
	store    WatchStore
	metadata MetadataProvider
	reviews  ReviewIndex
	logger   *logrus.Logger
	now      func() time.Time
}

func NewManager(store WatchStore, metadata MetadataProvider, reviews ReviewIndex, logger *logrus.Logger) *Manager {
	return &Manager{
		store:    store,
		metadata: metadata,
		reviews:  reviews,
		logger:   logger,
		now:      time.Now,
	}
}

// Result lists what an event actually granted, so callers can log matching
// activity entries or surface milestone UI.
type Result struct {
	Achievements []models.Achievement
	StarBadges   []models.StarBadge
}

// WatchedEvent identifies the episode whose watched-toggle triggered
// evaluation.
type WatchedEvent struct {
	UserID        string
	SeriesID      int
	SeasonNumber  int
	EpisodeNumber int
}

// OnEpisodeWatched re-evaluates season and series completion for the series
// the episode belongs to and records any newly crossed thresholds.
// Achievements are monotonic: nothing here ever removes one.
func (m *Manager) OnEpisodeWatched(ctx context.Context, event WatchedEvent) (*Result, error) {
	series, err := m.metadata.GetSeries(ctx, event.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to load series metadata: %w", err)
	}

	watched, err := m.store.WatchedEpisodes(ctx, event.UserID, event.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watched snapshot: %w", err)
	}

	result := &Result{}

	if season, ok := series.Season(event.SeasonNumber); ok {
		if progress.SeasonJustCompleted(event.SeasonNumber, watched, season.EpisodeCount) {
			key := models.AchievementKey{SeriesID: series.ID, SeasonNumber: event.SeasonNumber, Kind: models.SeasonFinish}
			granted, err := m.grantAchievement(ctx, event.UserID, key, series, season.PosterPath)
			if err != nil {
				return nil, err
			}
			if granted != nil {
				result.Achievements = append(result.Achievements, *granted)
			}
		}
	}

	if progress.SeriesJustCompleted(watched, series.TotalEpisodeCount) {
		key := models.AchievementKey{SeriesID: series.ID, Kind: models.SeriesFinish}
		granted, err := m.grantAchievement(ctx, event.UserID, key, series, series.PosterPath)
		if err != nil {
			return nil, err
		}
		if granted != nil {
			result.Achievements = append(result.Achievements, *granted)
		}

		badge, err := m.grantStarBadge(ctx, event.UserID, series)
		if err != nil {
			return nil, err
		}
		if badge != nil {
			result.StarBadges = append(result.StarBadges, *badge)
		}
	}

	return result, nil
}

// OnReviewSubmitted grants the star badge for a first series- or
// season-scope review, and marks the series watched: reviewing implies
// having seen the content. Episode reviews change nothing here.
func (m *Manager) OnReviewSubmitted(ctx context.Context, review *models.Review) (*Result, error) {
	if !review.Qualifying() {
		return &Result{}, nil
	}

	count, err := m.reviews.QualifyingReviewCount(ctx, review.UserID, review.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to count qualifying reviews: %w", err)
	}
	if count > 1 {
		// Not the first qualifying review for this series.
		return &Result{}, nil
	}

	result := &Result{}

	badge, err := m.grantStarBadge(ctx, review.UserID, &models.Series{
		ID:         review.SeriesID,
		Name:       review.SeriesName,
		PosterPath: review.PosterPath,
	})
	if err != nil {
		return nil, err
	}
	if badge != nil {
		result.StarBadges = append(result.StarBadges, *badge)
	}

	rec := models.WatchRecord{
		SeriesID:   review.SeriesID,
		Scope:      models.ScopeSeries,
		Name:       review.SeriesName,
		PosterPath: review.PosterPath,
		Timestamp:  m.now(),
	}
	if err := m.store.AddWatchRecord(ctx, review.UserID, models.CollectionWatched, rec); err != nil {
		return nil, fmt.Errorf("failed to mark series watched: %w", err)
	}

	return result, nil
}

// OnReviewDeleted revokes the series star badge whenever a qualifying review
// is deleted, regardless of whether other qualifying reviews remain for the
// same series.
func (m *Manager) OnReviewDeleted(ctx context.Context, review *models.Review) error {
	if !review.Qualifying() {
		return nil
	}

	if err := m.store.RemoveStarBadge(ctx, review.UserID, review.SeriesID); err != nil {
		return fmt.Errorf("failed to revoke star badge: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":   review.UserID,
		"series_id": review.SeriesID,
	}).Info("Star badge revoked after review deletion")
	return nil
}

func (m *Manager) grantAchievement(ctx context.Context, userID string, key models.AchievementKey, series *models.Series, posterPath string) (*models.Achievement, error) {
	exists, err := m.store.HasAchievement(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check achievement %s: %w", key, err)
	}
	if exists {
		return nil, nil
	}

	achievement := models.Achievement{
		Key:        key,
		Name:       series.Name,
		PosterPath: posterPath,
		Timestamp:  m.now(),
	}
	if err := m.store.AddAchievement(ctx, userID, achievement); err != nil {
		return nil, fmt.Errorf("failed to insert achievement %s: %w", key, err)
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"achievement_id": key.String(),
	}).Info("Achievement earned")
	return &achievement, nil
}

func (m *Manager) grantStarBadge(ctx context.Context, userID string, series *models.Series) (*models.StarBadge, error) {
	exists, err := m.store.HasStarBadge(ctx, userID, series.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check star badge: %w", err)
	}
	if exists {
		return nil, nil
	}

	badge := models.StarBadge{
		SeriesID:   series.ID,
		Name:       series.Name,
		PosterPath: series.PosterPath,
		Timestamp:  m.now(),
	}
	if err := m.store.AddStarBadge(ctx, userID, badge); err != nil {
		return nil, fmt.Errorf("failed to insert star badge: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"series_id": series.ID,
	}).Info("Star badge earned")
	return &badge, nil
}
