package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist. Every statement is
// idempotent so startup can run it unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			username   TEXT,
			photo_url  TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS watch_items (
			user_id        TEXT NOT NULL,
			collection     TEXT NOT NULL,
			series_id      BIGINT NOT NULL,
			season_number  INT NOT NULL DEFAULT 0,
			episode_number INT NOT NULL DEFAULT 0,
			scope          TEXT NOT NULL,
			name           TEXT,
			poster_path    TEXT,
			added_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, collection, series_id, season_number, episode_number)
		)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			user_id       TEXT NOT NULL,
			id            TEXT NOT NULL,
			series_id     BIGINT NOT NULL,
			season_number INT NOT NULL DEFAULT 0,
			kind          TEXT NOT NULL,
			name          TEXT,
			poster_path   TEXT,
			earned_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS star_series (
			user_id     TEXT NOT NULL,
			series_id   BIGINT NOT NULL,
			name        TEXT,
			poster_path TEXT,
			earned_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, series_id)
		)`,
		`CREATE TABLE IF NOT EXISTS selected_posters (
			user_id       TEXT NOT NULL,
			series_id     BIGINT NOT NULL,
			season_number INT NOT NULL,
			poster_path   TEXT NOT NULL,
			PRIMARY KEY (user_id, series_id, season_number)
		)`,
		`CREATE TABLE IF NOT EXISTS follows (
			user_id   TEXT NOT NULL,
			target_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, target_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			from_user  TEXT,
			message    TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id             UUID PRIMARY KEY,
			user_id        TEXT NOT NULL,
			user_name      TEXT,
			photo_url      TEXT,
			series_id      BIGINT NOT NULL,
			series_name    TEXT,
			poster_path    TEXT,
			scope          TEXT NOT NULL,
			season_number  INT NOT NULL DEFAULT 0,
			episode_number INT NOT NULL DEFAULT 0,
			rating         DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_text    TEXT,
			liked_by       TEXT[] NOT NULL DEFAULT '{}',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, series_id, scope, season_number, episode_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_series ON reviews (series_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS activity_events (
			id             UUID PRIMARY KEY,
			user_id        TEXT NOT NULL,
			username       TEXT,
			photo_url      TEXT,
			type           TEXT NOT NULL,
			series_id      BIGINT NOT NULL DEFAULT 0,
			series_name    TEXT,
			season_number  INT NOT NULL DEFAULT 0,
			episode_number INT NOT NULL DEFAULT 0,
			rating         DOUBLE PRECISION NOT NULL DEFAULT 0,
			snippet        TEXT,
			poster_path    TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_user_time ON activity_events (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
