package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"serieer/internal/models"

	"github.com/jackc/pgx/v5"
)

const reviewColumns = `id, user_id, COALESCE(user_name, ''), COALESCE(photo_url, ''), series_id,
	COALESCE(series_name, ''), COALESCE(poster_path, ''), scope, season_number, episode_number,
	rating, COALESCE(review_text, ''), liked_by, created_at, updated_at`

func scanReview(row pgx.Row) (*models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.PhotoURL, &r.SeriesID,
		&r.SeriesName, &r.PosterPath, &r.Scope, &r.SeasonNumber, &r.EpisodeNumber,
		&r.Rating, &r.Text, &r.LikedBy, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return &r, nil
}

// FindReview looks up the unique review for (user, series, scope, season,
// episode); nil when absent.
func (s *Store) FindReview(ctx context.Context, userID string, seriesID int, scope models.Scope, seasonNumber, episodeNumber int) (*models.Review, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE user_id = $1 AND series_id = $2 AND scope = $3 AND season_number = $4 AND episode_number = $5`,
		userID, seriesID, scope, seasonNumber, episodeNumber)
	return scanReview(row)
}

func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	row := s.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	return scanReview(row)
}

func (s *Store) InsertReview(ctx context.Context, review *models.Review) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO reviews (id, user_id, user_name, photo_url, series_id, series_name, poster_path,
			scope, season_number, episode_number, rating, review_text, liked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		review.ID, review.UserID, review.UserName, review.PhotoURL, review.SeriesID,
		review.SeriesName, review.PosterPath, review.Scope, review.SeasonNumber, review.EpisodeNumber,
		review.Rating, review.Text, review.LikedBy, review.CreatedAt, review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// UpdateReview rewrites rating and text in place; creation time and likes
// are preserved by never touching those columns.
func (s *Store) UpdateReview(ctx context.Context, review *models.Review) error {
	_, err := s.db.Exec(ctx, `
		UPDATE reviews SET rating = $2, review_text = $3, updated_at = $4 WHERE id = $1`,
		review.ID, review.Rating, review.Text, review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// ToggleReviewLike flips userID's membership in liked_by in one atomic
// statement and returns the resulting membership.
func (s *Store) ToggleReviewLike(ctx context.Context, id, userID string) (bool, error) {
	var liked bool
	err := s.db.QueryRow(ctx, `
		UPDATE reviews
		SET liked_by = CASE
			WHEN $2 = ANY(liked_by) THEN array_remove(liked_by, $2)
			ELSE array_append(liked_by, $2)
		END
		WHERE id = $1
		RETURNING $2 = ANY(liked_by)`, id, userID).Scan(&liked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("review %s not found", id)
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle review like: %w", err)
	}
	return liked, nil
}

// QualifyingReviewCount counts the user's series- and season-scope reviews
// for one series.
func (s *Store) QualifyingReviewCount(ctx context.Context, userID string, seriesID int) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM reviews
		WHERE user_id = $1 AND series_id = $2 AND scope != $3`,
		userID, seriesID, models.ScopeEpisode).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count qualifying reviews: %w", err)
	}
	return count, nil
}

// UserReviews lists all of one user's reviews newest-first.
func (s *Store) UserReviews(ctx context.Context, userID string) ([]models.Review, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user reviews: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

// SeriesReviews pages through a series' reviews, optionally narrowed to one
// scope or one season, ordered by creation time descending. A zero cursor
// starts from the newest; otherwise only reviews older than the cursor are
// returned.
func (s *Store) SeriesReviews(ctx context.Context, seriesID int, scope models.Scope, seasonNumber int, cursor time.Time, limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	if cursor.IsZero() {
		cursor = time.Now().Add(time.Hour)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE series_id = $1 AND created_at < $2`
	args := []any{seriesID, cursor}

	if scope != "" {
		args = append(args, scope)
		query += fmt.Sprintf(" AND scope = $%d", len(args))
	}
	if seasonNumber > 0 {
		args = append(args, seasonNumber)
		query += fmt.Sprintf(" AND season_number = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series reviews: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]models.Review, error) {
	var reviews []models.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}
