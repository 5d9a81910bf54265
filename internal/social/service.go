// Package social maintains the follow graph: who a user follows, who
// follows them, and the follower notifications that come with it. Unlike
// the watch-state writes, follow mutations surface their errors so the
// caller can show a failed follow instead of silently lying about it.
package social

import (
	"context"
	"fmt"
	"time"

	"serieer/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const profileBatchSize = 20

type Service struct {
	db     *pgxpool.Pool
	logger *logrus.Logger
	now    func() time.Time
}

func NewService(db *pgxpool.Pool, logger *logrus.Logger) *Service {
	return &Service{db: db, logger: logger, now: time.Now}
}

// Follow links userID to targetID and appends a "new follower" notification
// to the target. Both writes are idempotent; following yourself or passing
// an empty id is rejected.
func (s *Service) Follow(ctx context.Context, userID, targetID string) error {
	if userID == "" || targetID == "" {
		return fmt.Errorf("both user ids are required")
	}
	if userID == targetID {
		return fmt.Errorf("cannot follow yourself")
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO follows (user_id, target_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, target_id) DO NOTHING`,
		userID, targetID, s.now())
	if err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already following; do not notify again.
		return nil
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, from_user, message, created_at)
		VALUES ($1, $2, 'follower', $3, 'started following you', $4)`,
		uuid.New().String(), targetID, userID, s.now())
	if err != nil {
		// The follow edge itself committed; the notification is advisory.
		s.logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"target_id": targetID,
			"error":     err.Error(),
		}).Error("Failed to write follower notification")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"target_id": targetID,
	}).Info("Follow created")
	return nil
}

func (s *Service) Unfollow(ctx context.Context, userID, targetID string) error {
	if userID == "" || targetID == "" {
		return fmt.Errorf("both user ids are required")
	}

	if _, err := s.db.Exec(ctx,
		`DELETE FROM follows WHERE user_id = $1 AND target_id = $2`, userID, targetID); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

// FollowingIDs returns the ids the user follows, oldest edge first. The
// primary key on (user_id, target_id) makes duplicates impossible, so no
// read-side cleanup is needed.
func (s *Service) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return s.edgeIDs(ctx, `SELECT target_id FROM follows WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *Service) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.edgeIDs(ctx, `SELECT user_id FROM follows WHERE target_id = $1 ORDER BY created_at`, userID)
}

func (s *Service) edgeIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query follow edges: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follow edge: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProfileLoader resolves a batch of user ids to public profiles.
type ProfileLoader interface {
	Profiles(ctx context.Context, ids []string) ([]models.Profile, error)
}

// Following lists the profiles the user follows, loaded in batches so a
// large following list never turns into one oversized membership query.
func (s *Service) Following(ctx context.Context, loader ProfileLoader, userID string) ([]models.Profile, error) {
	ids, err := s.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadProfiles(ctx, loader, ids)
}

func (s *Service) Followers(ctx context.Context, loader ProfileLoader, userID string) ([]models.Profile, error) {
	ids, err := s.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return loadProfiles(ctx, loader, ids)
}

func loadProfiles(ctx context.Context, loader ProfileLoader, ids []string) ([]models.Profile, error) {
	var profiles []models.Profile
	for start := 0; start < len(ids); start += profileBatchSize {
		end := start + profileBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := loader.Profiles(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to load profile batch: %w", err)
		}
		profiles = append(profiles, batch...)
	}
	return profiles, nil
}

// Notifications returns the user's newest notifications.
func (s *Service) Notifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT type, COALESCE(from_user, ''), COALESCE(message, ''), created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notes []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.Type, &n.From, &n.Message, &n.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
