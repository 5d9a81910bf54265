package progress

import (
	"testing"

	"serieer/internal/models"
)

func episode(seriesID, season, ep int) models.WatchRecord {
	return models.WatchRecord{
		SeriesID:      seriesID,
		SeasonNumber:  season,
		EpisodeNumber: ep,
		Scope:         models.ScopeEpisode,
	}
}

func episodes(seriesID, season int, numbers ...int) []models.WatchRecord {
	var recs []models.WatchRecord
	for _, n := range numbers {
		recs = append(recs, episode(seriesID, season, n))
	}
	return recs
}

func TestSeasonJustCompleted(t *testing.T) {
	tests := []struct {
		name         string
		season       int
		watched      []models.WatchRecord
		episodeCount int
		want         bool
	}{
		{
			name:         "all episodes in order",
			season:       1,
			watched:      episodes(10, 1, 1, 2, 3),
			episodeCount: 3,
			want:         true,
		},
		{
			name:         "last episode first, middle marked last",
			season:       1,
			watched:      episodes(10, 1, 1, 2, 3, 4, 6, 7, 8, 9, 10, 5),
			episodeCount: 10,
			want:         true,
		},
		{
			name:         "one episode missing",
			season:       1,
			watched:      episodes(10, 1, 1, 2, 4),
			episodeCount: 4,
			want:         false,
		},
		{
			name:         "only the final episode watched",
			season:       1,
			watched:      episodes(10, 1, 10),
			episodeCount: 10,
			want:         false,
		},
		{
			name:         "other season does not count",
			season:       2,
			watched:      episodes(10, 1, 1, 2, 3),
			episodeCount: 3,
			want:         false,
		},
		{
			name:   "duplicate marks count once",
			season: 1,
			watched: append(episodes(10, 1, 1, 2),
				episode(10, 1, 2)),
			episodeCount: 3,
			want:         false,
		},
		{
			name: "non-episode records ignored",
			season: 1,
			watched: []models.WatchRecord{
				{SeriesID: 10, SeasonNumber: 1, Scope: models.ScopeSeason},
				episode(10, 1, 1),
			},
			episodeCount: 2,
			want:         false,
		},
		{
			name:         "zero episode count never completes",
			season:       1,
			watched:      episodes(10, 1, 1),
			episodeCount: 0,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeasonJustCompleted(tt.season, tt.watched, tt.episodeCount)
			if got != tt.want {
				t.Errorf("SeasonJustCompleted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeriesJustCompleted(t *testing.T) {
	twoSeasons := append(episodes(10, 1, 1, 2, 3), episodes(10, 2, 1, 2, 3)...)

	tests := []struct {
		name    string
		watched []models.WatchRecord
		total   int
		want    bool
	}{
		{
			name:    "all episodes across seasons",
			watched: twoSeasons,
			total:   6,
			want:    true,
		},
		{
			name:    "one short",
			watched: twoSeasons[:5],
			total:   6,
			want:    false,
		},
		{
			name:    "duplicates counted once",
			watched: append(twoSeasons, episode(10, 1, 1)),
			total:   7,
			want:    false,
		},
		{
			name:    "stale metadata total of zero",
			watched: twoSeasons,
			total:   0,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeriesJustCompleted(tt.watched, tt.total)
			if got != tt.want {
				t.Errorf("SeriesJustCompleted() = %v, want %v", got, tt.want)
			}
		})
	}
}
