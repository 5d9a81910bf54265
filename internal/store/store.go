// Package store is the per-user document store: the watchlist, watched,
// likes, achievement, star-badge and selected-poster collections, plus the
// flat review and activity-event collections. Each mutation is a single
// atomic statement; there are no cross-row transactions.
package store

import (
	"context"
	"fmt"
	"time"

	"serieer/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type Store struct {
	db     *pgxpool.Pool
	logger *logrus.Logger
}

func New(db *pgxpool.Pool, logger *logrus.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// EnsureUser creates the user row on first mutation, or refreshes a changed
// username on later ones.
func (s *Store) EnsureUser(ctx context.Context, userID, username string) error {
	if userID == "" {
		return nil
	}

	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	now := time.Now()

	if !exists {
		insertQuery := `
		INSERT INTO users (id, username, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO NOTHING
		`
		if _, err := s.db.Exec(ctx, insertQuery, userID, username, now); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"username": username,
		}).Info("A user has been created...")
		return nil
	}

	updateQuery := `
	UPDATE users
	SET username = $2, updated_at = $3
	WHERE id = $1 AND (username IS NULL OR username != $2)
	`
	if _, err := s.db.Exec(ctx, updateQuery, userID, username, now); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Profiles loads public profile rows for the given ids in one query.
func (s *Store) Profiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, COALESCE(username, ''), COALESCE(photo_url, '') FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.PhotoURL); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
