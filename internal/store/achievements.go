package store

import (
	"context"
	"fmt"

	"serieer/internal/models"
)

func (s *Store) HasAchievement(ctx context.Context, userID string, key models.AchievementKey) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM achievements WHERE user_id = $1 AND id = $2)`,
		userID, key.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check achievement: %w", err)
	}
	return exists, nil
}

func (s *Store) AddAchievement(ctx context.Context, userID string, a models.Achievement) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO achievements (user_id, id, series_id, season_number, kind, name, poster_path, earned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, id) DO NOTHING`,
		userID, a.Key.String(), a.Key.SeriesID, a.Key.SeasonNumber, a.Key.Kind, a.Name, a.PosterPath, a.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert achievement: %w", err)
	}
	return nil
}

// Achievements lists a user's achievements newest-first.
func (s *Store) Achievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	rows, err := s.db.Query(ctx, `
		SELECT series_id, season_number, kind, COALESCE(name, ''), COALESCE(poster_path, ''), earned_at
		FROM achievements WHERE user_id = $1 ORDER BY earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var list []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.Key.SeriesID, &a.Key.SeasonNumber, &a.Key.Kind, &a.Name, &a.PosterPath, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (s *Store) HasStarBadge(ctx context.Context, userID string, seriesID int) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM star_series WHERE user_id = $1 AND series_id = $2)`,
		userID, seriesID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check star badge: %w", err)
	}
	return exists, nil
}

func (s *Store) AddStarBadge(ctx context.Context, userID string, b models.StarBadge) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO star_series (user_id, series_id, name, poster_path, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, series_id) DO NOTHING`,
		userID, b.SeriesID, b.Name, b.PosterPath, b.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert star badge: %w", err)
	}
	return nil
}

func (s *Store) RemoveStarBadge(ctx context.Context, userID string, seriesID int) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM star_series WHERE user_id = $1 AND series_id = $2`, userID, seriesID)
	if err != nil {
		return fmt.Errorf("failed to remove star badge: %w", err)
	}
	return nil
}

// StarBadges lists a user's star badges newest-first.
func (s *Store) StarBadges(ctx context.Context, userID string) ([]models.StarBadge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT series_id, COALESCE(name, ''), COALESCE(poster_path, ''), earned_at
		FROM star_series WHERE user_id = $1 ORDER BY earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query star badges: %w", err)
	}
	defer rows.Close()

	var list []models.StarBadge
	for rows.Next() {
		var b models.StarBadge
		if err := rows.Scan(&b.SeriesID, &b.Name, &b.PosterPath, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan star badge: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
