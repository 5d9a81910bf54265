// Package posters resolves which poster path to render for a series or
// season, honoring per-user overrides before provider defaults.
package posters

import "fmt"

// OverrideKey builds the map key for a season-level poster override.
func OverrideKey(seriesID, seasonNumber int) string {
	return fmt.Sprintf("%d_%d", seriesID, seasonNumber)
}

// Resolve returns the user-selected override for (seriesID, seasonNumber)
// when one exists, otherwise the fallback path unchanged. A zero season
// number always yields the fallback. Pure and total.
func Resolve(seriesID, seasonNumber int, fallbackPath string, overrides map[string]string) string {
	if seriesID != 0 && seasonNumber != 0 {
		if path, ok := overrides[OverrideKey(seriesID, seasonNumber)]; ok {
			return path
		}
	}
	return fallbackPath
}

// UnlockStatus describes how many alternate posters a user has earned for a
// series based on how many of its seasons they completed.
type UnlockStatus struct {
	UnlockCount          int  `json:"unlock_count"`
	IsFullSeriesUnlocked bool `json:"is_full_series_unlocked"`
}

// Unlock computes the poster unlock state. Unlocks scale proportionally with
// completed seasons, with a floor of one unlocked poster once any season is
// complete and everything unlocked once all seasons are.
func Unlock(totalSeasons, completedSeasons, totalPosters int) UnlockStatus {
	if totalSeasons <= 0 || totalPosters <= 0 {
		return UnlockStatus{}
	}

	if completedSeasons >= totalSeasons {
		return UnlockStatus{UnlockCount: totalPosters, IsFullSeriesUnlocked: true}
	}

	count := completedSeasons * totalPosters / totalSeasons
	if completedSeasons > 0 && count < 1 {
		count = 1
	}
	return UnlockStatus{UnlockCount: count}
}
