package store

import (
	"context"
	"fmt"

	"serieer/internal/models"

	"github.com/sirupsen/logrus"
)

// Toggle flips membership of the record in the named collection and returns
// the resulting membership. Insert-or-nothing followed by a keyed delete
// keeps each path a single atomic statement, so concurrent toggles from two
// sessions settle on one of the two legal states instead of a torn one.
func (s *Store) Toggle(ctx context.Context, userID string, col models.Collection, rec models.WatchRecord) (bool, error) {
	if userID == "" {
		return false, nil
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO watch_items (user_id, collection, series_id, season_number, episode_number, scope, name, poster_path, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, collection, series_id, season_number, episode_number) DO NOTHING`,
		userID, col, rec.SeriesID, rec.SeasonNumber, rec.EpisodeNumber, rec.Scope, rec.Name, rec.PosterPath, rec.Timestamp)
	if err != nil {
		return false, fmt.Errorf("failed to insert %s record: %w", col, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// Already present: the toggle removes it.
	_, err = s.db.Exec(ctx, `
		DELETE FROM watch_items
		WHERE user_id = $1 AND collection = $2 AND series_id = $3 AND season_number = $4 AND episode_number = $5`,
		userID, col, rec.SeriesID, rec.SeasonNumber, rec.EpisodeNumber)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s record: %w", col, err)
	}
	return false, nil
}

// ToggleSeason toggles a whole season at once: entering a season adds every
// one of its episode records in one bulk statement, leaving removes them
// all. Membership is "any record of this season present".
func (s *Store) ToggleSeason(ctx context.Context, userID string, col models.Collection, rec models.WatchRecord, episodeCount int) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if episodeCount <= 0 {
		return false, fmt.Errorf("invalid episode count %d", episodeCount)
	}

	var present bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM watch_items
			WHERE user_id = $1 AND collection = $2 AND series_id = $3 AND season_number = $4
		)`, userID, col, rec.SeriesID, rec.SeasonNumber).Scan(&present)
	if err != nil {
		return false, fmt.Errorf("failed to check season membership: %w", err)
	}

	if present {
		_, err = s.db.Exec(ctx, `
			DELETE FROM watch_items
			WHERE user_id = $1 AND collection = $2 AND series_id = $3 AND season_number = $4`,
			userID, col, rec.SeriesID, rec.SeasonNumber)
		if err != nil {
			return false, fmt.Errorf("failed to remove season records: %w", err)
		}
		return false, nil
	}

	batch := `
		INSERT INTO watch_items (user_id, collection, series_id, season_number, episode_number, scope, name, poster_path, added_at)
		SELECT $1, $2, $3, $4, ep, $5, $6, $7, $8
		FROM generate_series(1, $9) AS ep
		ON CONFLICT (user_id, collection, series_id, season_number, episode_number) DO NOTHING`
	_, err = s.db.Exec(ctx, batch,
		userID, col, rec.SeriesID, rec.SeasonNumber, models.ScopeEpisode, rec.Name, rec.PosterPath, rec.Timestamp, episodeCount)
	if err != nil {
		return false, fmt.Errorf("failed to bulk insert season records: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"series_id": rec.SeriesID,
		"season":    rec.SeasonNumber,
		"episodes":  episodeCount,
	}).Debug("Season toggled on")
	return true, nil
}

// AddWatchRecord inserts the record if absent; an existing record is left
// untouched. Used where membership must only ever grow, e.g. review-implied
// watched marks.
func (s *Store) AddWatchRecord(ctx context.Context, userID string, col models.Collection, rec models.WatchRecord) error {
	if userID == "" {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO watch_items (user_id, collection, series_id, season_number, episode_number, scope, name, poster_path, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, collection, series_id, season_number, episode_number) DO NOTHING`,
		userID, col, rec.SeriesID, rec.SeasonNumber, rec.EpisodeNumber, rec.Scope, rec.Name, rec.PosterPath, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert %s record: %w", col, err)
	}
	return nil
}

// Collection lists one collection newest-first.
func (s *Store) Collection(ctx context.Context, userID string, col models.Collection) ([]models.WatchRecord, error) {
	if userID == "" {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT series_id, season_number, episode_number, scope, COALESCE(name, ''), COALESCE(poster_path, ''), added_at
		FROM watch_items
		WHERE user_id = $1 AND collection = $2
		ORDER BY added_at DESC`, userID, col)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s collection: %w", col, err)
	}
	defer rows.Close()

	return scanWatchRecords(rows)
}

// WatchedEpisodes returns the watched records for one series, the snapshot
// the progress evaluator runs against.
func (s *Store) WatchedEpisodes(ctx context.Context, userID string, seriesID int) ([]models.WatchRecord, error) {
	if userID == "" {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT series_id, season_number, episode_number, scope, COALESCE(name, ''), COALESCE(poster_path, ''), added_at
		FROM watch_items
		WHERE user_id = $1 AND collection = $2 AND series_id = $3`,
		userID, models.CollectionWatched, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched episodes: %w", err)
	}
	defer rows.Close()

	return scanWatchRecords(rows)
}

type watchRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanWatchRecords(rows watchRows) ([]models.WatchRecord, error) {
	var records []models.WatchRecord
	for rows.Next() {
		var rec models.WatchRecord
		if err := rows.Scan(&rec.SeriesID, &rec.SeasonNumber, &rec.EpisodeNumber, &rec.Scope, &rec.Name, &rec.PosterPath, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan watch record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
