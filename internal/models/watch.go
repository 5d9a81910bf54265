package models

import (
	"fmt"
	"time"
)

// Scope is the granularity a watch action or review applies to.
type Scope string

const (
	ScopeSeries  Scope = "series"
	ScopeSeason  Scope = "season"
	ScopeEpisode Scope = "episode"
)

// Collection names one of the per-user watch-state sets.
type Collection string

const (
	CollectionWatchlist Collection = "watchlist"
	CollectionWatched   Collection = "watched"
	CollectionLiked     Collection = "likes"
)

// WatchRecord is one entry in a per-user collection. At most one record
// exists per (collection, series, season, episode); toggling an existing
// record removes it.
type WatchRecord struct {
	SeriesID      int       `json:"series_id" db:"series_id"`
	SeasonNumber  int       `json:"season_number" db:"season_number"` // 0 for series scope
	EpisodeNumber int       `json:"episode_number" db:"episode_number"`
	Scope         Scope     `json:"scope" db:"scope"`
	Name          string    `json:"name" db:"name"`
	PosterPath    string    `json:"poster_path" db:"poster_path"`
	Timestamp     time.Time `json:"timestamp" db:"added_at"`
}

// TargetKey renders the legacy composite identifier for this record:
// "123", "123-S1" or "123-S1-E2" depending on scope.
func (r WatchRecord) TargetKey() string {
	switch r.Scope {
	case ScopeEpisode:
		return fmt.Sprintf("%d-S%d-E%d", r.SeriesID, r.SeasonNumber, r.EpisodeNumber)
	case ScopeSeason:
		return fmt.Sprintf("%d-S%d", r.SeriesID, r.SeasonNumber)
	default:
		return fmt.Sprintf("%d", r.SeriesID)
	}
}

// SameTarget reports whether two records address the same series, season,
// episode and scope. Timestamps and display fields are ignored.
func (r WatchRecord) SameTarget(o WatchRecord) bool {
	return r.SeriesID == o.SeriesID &&
		r.SeasonNumber == o.SeasonNumber &&
		r.EpisodeNumber == o.EpisodeNumber &&
		r.Scope == o.Scope
}
