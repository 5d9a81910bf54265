package store

import (
	"context"
	"errors"
	"fmt"

	"serieer/internal/models"

	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, user_id, COALESCE(username, ''), COALESCE(photo_url, ''), type, series_id,
	COALESCE(series_name, ''), season_number, episode_number, rating, COALESCE(snippet, ''),
	COALESCE(poster_path, ''), created_at`

func scanEvent(row pgx.Row) (*models.ActivityEvent, error) {
	var e models.ActivityEvent
	err := row.Scan(&e.ID, &e.UserID, &e.Username, &e.PhotoURL, &e.Type, &e.SeriesID,
		&e.SeriesName, &e.SeasonNumber, &e.EpisodeNumber, &e.Rating, &e.Snippet,
		&e.PosterPath, &e.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity event: %w", err)
	}
	return &e, nil
}

func (s *Store) InsertEvent(ctx context.Context, event models.ActivityEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO activity_events (id, user_id, username, photo_url, type, series_id, series_name,
			season_number, episode_number, rating, snippet, poster_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.UserID, event.Username, event.PhotoURL, event.Type, event.SeriesID,
		event.SeriesName, event.SeasonNumber, event.EpisodeNumber, event.Rating, event.Snippet,
		event.PosterPath, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert activity event: %w", err)
	}
	return nil
}

// RecentEvents returns the newest events across the given users, server
// ordered by timestamp descending. Callers pass at most ten ids per query.
func (s *Store) RecentEvents(ctx context.Context, userIDs []string, limit int) ([]models.ActivityEvent, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	if len(userIDs) > 10 {
		return nil, fmt.Errorf("membership query limited to 10 ids, got %d", len(userIDs))
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+eventColumns+` FROM activity_events
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2`, userIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var events []models.ActivityEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// LatestEvent returns the single most recent event across the given users,
// nil when none exist.
func (s *Store) LatestEvent(ctx context.Context, userIDs []string) (*models.ActivityEvent, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	if len(userIDs) > 10 {
		userIDs = userIDs[:10]
	}

	row := s.db.QueryRow(ctx, `
		SELECT `+eventColumns+` FROM activity_events
		WHERE user_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT 1`, userIDs)
	return scanEvent(row)
}

// DeleteEventsMatching removes one user's events of a type for a series.
// seasonNumber < 0 matches any season; episodesOnly keeps the delete to
// episode-scope events.
func (s *Store) DeleteEventsMatching(ctx context.Context, userID string, typ models.EventType, seriesID, seasonNumber int, episodesOnly bool) error {
	query := `DELETE FROM activity_events WHERE user_id = $1 AND type = $2 AND series_id = $3`
	args := []any{userID, typ, seriesID}

	if seasonNumber >= 0 {
		args = append(args, seasonNumber)
		query += fmt.Sprintf(" AND season_number = $%d", len(args))
	}
	if episodesOnly {
		query += " AND episode_number > 0"
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete matching events: %w", err)
	}
	return nil
}

// OldestEvents returns one user's oldest events for the lazy retention
// sweep.
func (s *Store) OldestEvents(ctx context.Context, userID string, limit int) ([]models.ActivityEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+eventColumns+` FROM activity_events
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query oldest events: %w", err)
	}
	defer rows.Close()

	var events []models.ActivityEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (s *Store) DeleteEventsByID(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM activity_events WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	return nil
}
