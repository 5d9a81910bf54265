package models

// Series is read-only content metadata from the external provider. It is
// the sole ground truth for "how many episodes exist" in completion math.
type Series struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	PosterPath        string   `json:"poster_path"`
	TotalEpisodeCount int      `json:"number_of_episodes"`
	Seasons           []Season `json:"seasons"`
}

type Season struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	PosterPath   string `json:"poster_path"`
}

// Season returns the season with the given number, if present.
func (s *Series) Season(n int) (Season, bool) {
	for _, season := range s.Seasons {
		if season.SeasonNumber == n {
			return season, true
		}
	}
	return Season{}, false
}
