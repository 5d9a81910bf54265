package activity

import (
	"context"
	"sync"
	"time"

	"serieer/internal/flags"

	"github.com/sirupsen/logrus"
)

const lastViewedFlag = "feed:last_viewed"

// Unread answers "is there anything new in the social feed" with a single
// most-recent-item query instead of a full fan-out, comparing against a
// per-user last-viewed timestamp kept in the local flags store.
type Unread struct {
	events EventQuerier
	kv     flags.KV
	logger *logrus.Logger
	now    func() time.Time

	mu        sync.Mutex
	listeners []func(userID string)
}

func NewUnread(events EventQuerier, kv flags.KV, logger *logrus.Logger) *Unread {
	return &Unread{events: events, kv: kv, logger: logger, now: time.Now}
}

// HasNewActivity reports whether any of the first ten followed users has an
// event newer than the caller's last-viewed timestamp. A missing timestamp
// means everything is new.
func (u *Unread) HasNewActivity(ctx context.Context, userID string, followingIDs []string) (bool, error) {
	if userID == "" || len(followingIDs) == 0 {
		return false, nil
	}
	if len(followingIDs) > maxIDsPerQuery {
		followingIDs = followingIDs[:maxIDsPerQuery]
	}

	latest, err := u.events.LatestEvent(ctx, followingIDs)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return false, nil
	}

	stored, err := u.kv.Get(ctx, userID, lastViewedFlag)
	if err != nil {
		u.logger.WithError(err).Warn("Failed to read last-viewed timestamp")
		return true, nil
	}
	if stored == "" {
		return true, nil
	}

	lastViewed, err := time.Parse(time.RFC3339Nano, stored)
	if err != nil {
		return true, nil
	}
	return latest.Timestamp.After(lastViewed), nil
}

// MarkViewed stores the current time as the last-viewed timestamp and fires
// registered listeners, e.g. to clear an unread indicator.
func (u *Unread) MarkViewed(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := u.kv.Set(ctx, userID, lastViewedFlag, u.now().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	u.mu.Lock()
	listeners := make([]func(string), len(u.listeners))
	copy(listeners, u.listeners)
	u.mu.Unlock()

	for _, fn := range listeners {
		fn(userID)
	}
	return nil
}

// OnViewed registers a listener invoked whenever MarkViewed succeeds.
func (u *Unread) OnViewed(fn func(userID string)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listeners = append(u.listeners, fn)
}
