package models

import "testing"

func TestAchievementKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  AchievementKey
		want string
	}{
		{"season finish", AchievementKey{SeriesID: 123, SeasonNumber: 1, Kind: SeasonFinish}, "123-S1-COMPLETED"},
		{"later season", AchievementKey{SeriesID: 123, SeasonNumber: 12, Kind: SeasonFinish}, "123-S12-COMPLETED"},
		{"series finish", AchievementKey{SeriesID: 123, Kind: SeriesFinish}, "123-SERIES-COMPLETED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWatchRecordTargetKey(t *testing.T) {
	tests := []struct {
		name string
		rec  WatchRecord
		want string
	}{
		{"episode", WatchRecord{SeriesID: 123, SeasonNumber: 1, EpisodeNumber: 2, Scope: ScopeEpisode}, "123-S1-E2"},
		{"season", WatchRecord{SeriesID: 123, SeasonNumber: 1, Scope: ScopeSeason}, "123-S1"},
		{"series", WatchRecord{SeriesID: 123, Scope: ScopeSeries}, "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.TargetKey(); got != tt.want {
				t.Errorf("TargetKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActivityEventScope(t *testing.T) {
	tests := []struct {
		name  string
		event ActivityEvent
		want  Scope
	}{
		{"episode", ActivityEvent{SeasonNumber: 1, EpisodeNumber: 2}, ScopeEpisode},
		{"season", ActivityEvent{SeasonNumber: 1}, ScopeSeason},
		{"series", ActivityEvent{}, ScopeSeries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Scope(); got != tt.want {
				t.Errorf("Scope() = %q, want %q", got, tt.want)
			}
		})
	}
}
