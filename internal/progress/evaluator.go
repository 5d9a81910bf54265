// Package progress holds the pure completion checks run after every watched
// mutation. It performs no I/O so it can later run server-side unchanged.
package progress

import "serieer/internal/models"

// SeasonJustCompleted reports whether every episode 1..episodeCount of the
// season is present in watched. The check is a full membership scan:
// episodes may be marked in any order, so "was the last-numbered episode
// just added" is not a valid shortcut.
func SeasonJustCompleted(seasonNumber int, watched []models.WatchRecord, episodeCount int) bool {
	if episodeCount <= 0 {
		return false
	}

	seen := make(map[int]bool, episodeCount)
	for _, rec := range watched {
		if rec.Scope == models.ScopeEpisode && rec.SeasonNumber == seasonNumber {
			seen[rec.EpisodeNumber] = true
		}
	}

	for ep := 1; ep <= episodeCount; ep++ {
		if !seen[ep] {
			return false
		}
	}
	return true
}

// SeriesJustCompleted reports whether the count of distinct watched episodes
// equals the series total. Stale metadata (a total above the recorded watch
// state) simply yields false until counts realign.
func SeriesJustCompleted(watched []models.WatchRecord, totalEpisodeCount int) bool {
	if totalEpisodeCount <= 0 {
		return false
	}

	distinct := make(map[string]bool, len(watched))
	for _, rec := range watched {
		if rec.Scope == models.ScopeEpisode {
			distinct[rec.TargetKey()] = true
		}
	}
	return len(distinct) >= totalEpisodeCount
}
