package models

import "time"

// EventType tags an activity event. Watched events carry their scope in the
// season/episode fields: episode events set both, season events set only the
// season number, series events neither.
type EventType string

const (
	EventWatched        EventType = "watched"
	EventWatchlistAdded EventType = "watchlist_added"
	EventLiked          EventType = "liked"
	EventReviewed       EventType = "reviewed"
	EventFollowed       EventType = "followed"
	EventLikedReview    EventType = "liked_review"
	EventPosterUpdated  EventType = "poster_updated"
)

// ActivityEvent is one row of the flat activity-event collection, written
// on user actions and read back by the feed aggregator.
type ActivityEvent struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	PhotoURL      string    `json:"photo_url" db:"photo_url"`
	Type          EventType `json:"type" db:"type"`
	SeriesID      int       `json:"series_id" db:"series_id"`
	SeriesName    string    `json:"series_name" db:"series_name"`
	SeasonNumber  int       `json:"season_number" db:"season_number"`
	EpisodeNumber int       `json:"episode_number" db:"episode_number"`
	Rating        float64   `json:"rating" db:"rating"`
	Snippet       string    `json:"snippet" db:"snippet"`
	PosterPath    string    `json:"poster_path" db:"poster_path"`
	Timestamp     time.Time `json:"timestamp" db:"created_at"`
}

// Scope derives the granularity of the event target from its number fields.
func (e ActivityEvent) Scope() Scope {
	switch {
	case e.EpisodeNumber > 0:
		return ScopeEpisode
	case e.SeasonNumber > 0:
		return ScopeSeason
	default:
		return ScopeSeries
	}
}

// FeedEntry is one rendered row of a personal feed. A basket entry stands
// in for a run of consecutive watchlist additions for the same season.
type FeedEntry struct {
	Event        ActivityEvent   `json:"event"`
	Basket       bool            `json:"basket"`
	EpisodeCount int             `json:"episode_count,omitempty"`
	Episodes     []ActivityEvent `json:"episodes,omitempty"`
}

// Notification is an entry appended to a user's notification list, e.g. on
// gaining a follower.
type Notification struct {
	Type      string    `json:"type" db:"type"`
	From      string    `json:"from" db:"from_user"`
	Message   string    `json:"message" db:"message"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
}

// Profile is the public slice of a user document.
type Profile struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	PhotoURL string `json:"photo_url" db:"photo_url"`
}
