package store

import (
	"context"
	"fmt"

	"serieer/internal/posters"
)

// SelectPoster records a user's poster override for one season; re-choosing
// replaces the previous value in place.
func (s *Store) SelectPoster(ctx context.Context, userID string, seriesID, seasonNumber int, posterPath string) error {
	if userID == "" {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO selected_posters (user_id, series_id, season_number, poster_path)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, series_id, season_number) DO UPDATE SET poster_path = EXCLUDED.poster_path`,
		userID, seriesID, seasonNumber, posterPath)
	if err != nil {
		return fmt.Errorf("failed to select poster: %w", err)
	}
	return nil
}

// ClearSelectedPoster drops an override, falling back to provider defaults.
func (s *Store) ClearSelectedPoster(ctx context.Context, userID string, seriesID, seasonNumber int) error {
	if userID == "" {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM selected_posters WHERE user_id = $1 AND series_id = $2 AND season_number = $3`,
		userID, seriesID, seasonNumber)
	if err != nil {
		return fmt.Errorf("failed to clear selected poster: %w", err)
	}
	return nil
}

// SelectedPosters returns the user's override map keyed "<series>_<season>",
// the shape the resolver consumes.
func (s *Store) SelectedPosters(ctx context.Context, userID string) (map[string]string, error) {
	if userID == "" {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT series_id, season_number, poster_path FROM selected_posters WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selected posters: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]string)
	for rows.Next() {
		var seriesID, seasonNumber int
		var path string
		if err := rows.Scan(&seriesID, &seasonNumber, &path); err != nil {
			return nil, fmt.Errorf("failed to scan selected poster: %w", err)
		}
		overrides[posters.OverrideKey(seriesID, seasonNumber)] = path
	}
	return overrides, rows.Err()
}
