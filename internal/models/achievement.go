package models

import (
	"fmt"
	"time"
)

// AchievementKind distinguishes season from series completion records.
type AchievementKind string

const (
	SeasonFinish AchievementKind = "season_finish"
	SeriesFinish AchievementKind = "series_finish"
)

// AchievementKey is the composite identity of an achievement. Duplicate
// detection is an existence check on this key, never a scan.
type AchievementKey struct {
	SeriesID     int             `json:"series_id"`
	SeasonNumber int             `json:"season_number"` // 0 for series finish
	Kind         AchievementKind `json:"kind"`
}

// String renders the legacy wire form of the key: "123-S2-COMPLETED" for a
// season finish, "123-SERIES-COMPLETED" for a series finish.
func (k AchievementKey) String() string {
	if k.Kind == SeriesFinish {
		return fmt.Sprintf("%d-SERIES-COMPLETED", k.SeriesID)
	}
	return fmt.Sprintf("%d-S%d-COMPLETED", k.SeriesID, k.SeasonNumber)
}

// Achievement is a durable record of crossing a completion threshold.
// Achievements are append-only: un-watching episodes never removes them.
type Achievement struct {
	Key        AchievementKey `json:"key"`
	Name       string         `json:"name"`
	PosterPath string         `json:"poster_path"`
	Timestamp  time.Time      `json:"timestamp"`
}

// StarBadge marks a series as fully engaged with, granted by completing
// every episode or by a first non-episode review. One per series.
type StarBadge struct {
	SeriesID   int       `json:"series_id"`
	Name       string    `json:"name"`
	PosterPath string    `json:"poster_path"`
	Timestamp  time.Time `json:"timestamp"`
}
