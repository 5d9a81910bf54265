package models

import "time"

// Review is a flat, queryable record. At most one review exists per
// (user, series, scope, season, episode); re-submission updates in place.
type Review struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	UserName      string    `json:"user_name" db:"user_name"`
	PhotoURL      string    `json:"photo_url" db:"photo_url"`
	SeriesID      int       `json:"series_id" db:"series_id"`
	SeriesName    string    `json:"series_name" db:"series_name"`
	PosterPath    string    `json:"poster_path" db:"poster_path"`
	Scope         Scope     `json:"scope" db:"scope"`
	SeasonNumber  int       `json:"season_number" db:"season_number"`
	EpisodeNumber int       `json:"episode_number" db:"episode_number"`
	Rating        float64   `json:"rating" db:"rating"` // 0-5
	Text          string    `json:"review_text" db:"review_text"`
	LikedBy       []string  `json:"liked_by" db:"liked_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Qualifying reports whether the review can grant a star badge: only
// series- and season-scope reviews do.
func (r *Review) Qualifying() bool {
	return r.Scope != ScopeEpisode
}

// LikedByUser reports membership of userID in the liked-by set.
func (r *Review) LikedByUser(userID string) bool {
	for _, id := range r.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
