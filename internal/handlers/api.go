// Package handlers is the JSON edge of the engine. Handlers stay thin:
// decode, resolve the acting user from the X-User-ID header, call into the
// container's services, encode. Requests without a user id are the
// signed-out case and resolve to silent no-ops on writes.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"serieer/internal/achievements"
	"serieer/internal/container"
	"serieer/internal/models"
	"serieer/internal/posters"
	"serieer/internal/progress"
	"serieer/internal/reviews"
	"serieer/internal/social"

	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func actingUser(r *http.Request) (id, name, photo string) {
	return r.Header.Get("X-User-ID"), r.Header.Get("X-User-Name"), r.Header.Get("X-User-Photo")
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

type toggleRequest struct {
	Collection    models.Collection `json:"collection"`
	SeriesID      int               `json:"series_id"`
	SeasonNumber  int               `json:"season_number"`
	EpisodeNumber int               `json:"episode_number"`
	Scope         models.Scope      `json:"scope"`
	Name          string            `json:"name"`
	PosterPath    string            `json:"poster_path"`
	// EpisodeCount is required for season-scope watched toggles so the
	// season can be expanded into per-episode records.
	EpisodeCount int `json:"episode_count"`
}

type toggleResponse struct {
	Member       bool                 `json:"member"`
	Achievements []models.Achievement `json:"achievements,omitempty"`
	StarBadges   []models.StarBadge   `json:"star_badges,omitempty"`
}

var eventTypeByCollection = map[models.Collection]models.EventType{
	models.CollectionWatched:   models.EventWatched,
	models.CollectionWatchlist: models.EventWatchlistAdded,
	models.CollectionLiked:     models.EventLiked,
}

// ToggleHandler flips membership of a series, season or episode in one of
// the user's collections. Adding to the watched collection re-evaluates
// completion milestones and returns anything newly granted.
func ToggleHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, userName, photoURL := actingUser(r)
		if userID == "" {
			writeJSON(w, http.StatusOK, toggleResponse{})
			return
		}

		var req toggleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		if err := c.Store.EnsureUser(ctx, userID, userName); err != nil {
			c.Logger.WithError(err).Error("Failed to ensure user")
		}

		rec := models.WatchRecord{
			SeriesID:      req.SeriesID,
			SeasonNumber:  req.SeasonNumber,
			EpisodeNumber: req.EpisodeNumber,
			Scope:         req.Scope,
			Name:          req.Name,
			PosterPath:    req.PosterPath,
			Timestamp:     time.Now(),
		}

		var (
			member bool
			err    error
		)
		if req.Scope == models.ScopeSeason && req.EpisodeCount > 0 {
			member, err = c.Store.ToggleSeason(ctx, userID, req.Collection, rec, req.EpisodeCount)
		} else {
			member, err = c.Store.Toggle(ctx, userID, req.Collection, rec)
		}
		if err != nil {
			c.Logger.WithError(err).Error("Failed to toggle collection membership")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		resp := toggleResponse{Member: member}
		if !member {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		if typ, ok := eventTypeByCollection[req.Collection]; ok {
			event := models.ActivityEvent{
				ID:            uuid.NewString(),
				UserID:        userID,
				Username:      userName,
				PhotoURL:      photoURL,
				Type:          typ,
				SeriesID:      req.SeriesID,
				SeriesName:    req.Name,
				SeasonNumber:  rec.SeasonNumber,
				EpisodeNumber: rec.EpisodeNumber,
				PosterPath:    req.PosterPath,
				Timestamp:     time.Now(),
			}
			if err := c.Recorder.Record(ctx, event); err != nil {
				c.Logger.WithError(err).Error("Failed to record activity event")
			}
		}

		if req.Collection == models.CollectionWatched && req.Scope != models.ScopeSeries {
			result, err := c.Achievements.OnEpisodeWatched(ctx, achievements.WatchedEvent{
				UserID:        userID,
				SeriesID:      req.SeriesID,
				SeasonNumber:  req.SeasonNumber,
				EpisodeNumber: req.EpisodeNumber,
			})
			if err != nil {
				// Milestones catch up on the next toggle; the watch state
				// itself is already committed.
				c.Logger.WithError(err).Warn("Milestone evaluation failed")
			} else {
				resp.Achievements = result.Achievements
				resp.StarBadges = result.StarBadges
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// CollectionHandler lists one of the user's collections.
func CollectionHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		records, err := c.Store.Collection(r.Context(), userID, models.Collection(r.URL.Query().Get("collection")))
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load collection")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

// AchievementsHandler lists the user's completion milestones and star
// badges.
func AchievementsHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		ctx := r.Context()

		milestones, err := c.Store.Achievements(ctx, userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load achievements")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		badges, err := c.Store.StarBadges(ctx, userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load star badges")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"achievements": milestones,
			"star_badges":  badges,
		})
	}
}

type posterSelectRequest struct {
	SeriesID     int    `json:"series_id"`
	SeriesName   string `json:"series_name"`
	SeasonNumber int    `json:"season_number"`
	PosterPath   string `json:"poster_path"`
}

// PosterSelectHandler stores or clears a poster override for one series
// season. An empty poster path clears the override; choosing one also logs
// a poster_updated activity event, one per series.
func PosterSelectHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, userName, photoURL := actingUser(r)
		if userID == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		var req posterSelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		if req.PosterPath == "" {
			if err := c.Store.ClearSelectedPoster(ctx, userID, req.SeriesID, req.SeasonNumber); err != nil {
				c.Logger.WithError(err).Error("Failed to clear selected poster")
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if err := c.Store.SelectPoster(ctx, userID, req.SeriesID, req.SeasonNumber, req.PosterPath); err != nil {
			c.Logger.WithError(err).Error("Failed to update selected poster")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		event := models.ActivityEvent{
			ID:           uuid.NewString(),
			UserID:       userID,
			Username:     userName,
			PhotoURL:     photoURL,
			Type:         models.EventPosterUpdated,
			SeriesID:     req.SeriesID,
			SeriesName:   req.SeriesName,
			SeasonNumber: req.SeasonNumber,
			PosterPath:   req.PosterPath,
			Timestamp:    time.Now(),
		}
		if err := c.Recorder.Record(ctx, event); err != nil {
			c.Logger.WithError(err).Error("Failed to record poster event")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PostersHandler returns the user's poster override map.
func PostersHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		overrides, err := c.Store.SelectedPosters(r.Context(), userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load selected posters")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, overrides)
	}
}

// PosterUnlockHandler reports how many alternate posters the user has
// unlocked for a series, derived from which seasons they have completed.
func PosterUnlockHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		seriesID := queryInt(r, "series_id")
		ctx := r.Context()

		series, err := c.Metadata.GetSeries(ctx, seriesID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load series metadata")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		watched, err := c.Store.WatchedEpisodes(ctx, userID, seriesID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load watched snapshot")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		completed := 0
		for _, season := range series.Seasons {
			if progress.SeasonJustCompleted(season.SeasonNumber, watched, season.EpisodeCount) {
				completed++
			}
		}

		totalPosters := queryInt(r, "total_posters")
		if totalPosters <= 0 {
			totalPosters = len(series.Seasons)
		}

		writeJSON(w, http.StatusOK, posters.Unlock(len(series.Seasons), completed, totalPosters))
	}
}

// ReviewsHandler submits a review on POST and lists a series' reviews on
// GET, newest first with created_at cursor pagination.
func ReviewsHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			userID, userName, photoURL := actingUser(r)

			var sub reviews.Submission
			if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}
			sub.UserID = userID
			sub.UserName = userName
			sub.PhotoURL = photoURL

			if userID != "" {
				if err := c.Store.EnsureUser(r.Context(), userID, userName); err != nil {
					c.Logger.WithError(err).Error("Failed to ensure user")
				}
			}

			review, err := c.Reviews.Submit(r.Context(), sub)
			if err != nil {
				c.Logger.WithError(err).Error("Failed to submit review")
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, review)

		case http.MethodGet:
			cursor := time.Now()
			if raw := r.URL.Query().Get("cursor"); raw != "" {
				parsed, err := time.Parse(time.RFC3339Nano, raw)
				if err != nil {
					http.Error(w, "Bad cursor", http.StatusBadRequest)
					return
				}
				cursor = parsed
			}

			list, err := c.Store.SeriesReviews(r.Context(),
				queryInt(r, "series_id"),
				models.Scope(r.URL.Query().Get("scope")),
				queryInt(r, "season_number"),
				cursor,
				queryInt(r, "limit"))
			if err != nil {
				c.Logger.WithError(err).Error("Failed to list reviews")
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, list)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type reviewIDRequest struct {
	ReviewID string `json:"review_id"`
}

// ReviewDeleteHandler removes a review and lets the milestone side effects
// run.
func ReviewDeleteHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req reviewIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if err := c.Reviews.Delete(r.Context(), req.ReviewID); err != nil {
			c.Logger.WithError(err).Error("Failed to delete review")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReviewLikeHandler toggles the acting user's like on a review.
func ReviewLikeHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		if userID == "" {
			writeJSON(w, http.StatusOK, map[string]bool{"liked": false})
			return
		}

		var req reviewIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		liked, err := c.Reviews.ToggleLike(r.Context(), req.ReviewID, userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to toggle review like")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
	}
}

// PersonalFeedHandler returns the user's own activity, basket-grouped.
func PersonalFeedHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		entries, err := c.Feed.PersonalFeed(r.Context(), userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to build personal feed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// SocialFeedHandler merges the recent activity of everyone the user
// follows. reviews_only=true narrows it to review events.
func SocialFeedHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		ctx := r.Context()

		following, err := c.Social.FollowingIDs(ctx, userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load following ids")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		reviewsOnly := r.URL.Query().Get("reviews_only") == "true"
		events, err := c.Feed.SocialFeed(ctx, following, reviewsOnly)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to build social feed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// UnreadHandler reports whether anyone the user follows has activity newer
// than the user's last feed visit.
func UnreadHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		ctx := r.Context()

		following, err := c.Social.FollowingIDs(ctx, userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to load following ids")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		unread, err := c.Unread.HasNewActivity(ctx, userID, following)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to check unread activity")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"unread": unread})
	}
}

// MarkViewedHandler records the user's feed visit.
func MarkViewedHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		if userID == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if err := c.Unread.MarkViewed(r.Context(), userID); err != nil {
			c.Logger.WithError(err).Error("Failed to mark feed viewed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type followRequest struct {
	TargetID string `json:"target_id"`
}

// FollowHandler creates a follow edge. Unlike collection toggles, follow
// failures are surfaced so the caller never shows a follow that did not
// happen.
func FollowHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, userName, photoURL := actingUser(r)

		var req followRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		ctx := r.Context()
		if err := c.Social.Follow(ctx, userID, req.TargetID); err != nil {
			c.Logger.WithError(err).Error("Failed to follow user")
			http.Error(w, "Follow failed", http.StatusBadRequest)
			return
		}

		event := models.ActivityEvent{
			ID:        uuid.NewString(),
			UserID:    userID,
			Username:  userName,
			PhotoURL:  photoURL,
			Type:      models.EventFollowed,
			Snippet:   req.TargetID,
			Timestamp: time.Now(),
		}
		if err := c.Recorder.Record(ctx, event); err != nil {
			c.Logger.WithError(err).Error("Failed to record follow event")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func UnfollowHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)

		var req followRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if err := c.Social.Unfollow(r.Context(), userID, req.TargetID); err != nil {
			c.Logger.WithError(err).Error("Failed to unfollow user")
			http.Error(w, "Unfollow failed", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// FollowingHandler and FollowersHandler list profiles on either side of
// the user's follow edges.
func FollowingHandler(c *container.Container) http.HandlerFunc {
	return followListHandler(c, c.Social.Following)
}

func FollowersHandler(c *container.Container) http.HandlerFunc {
	return followListHandler(c, c.Social.Followers)
}

func followListHandler(c *container.Container, list func(ctx context.Context, loader social.ProfileLoader, userID string) ([]models.Profile, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		profiles, err := list(r.Context(), c.Store, userID)
		if err != nil {
			c.Logger.WithError(err).Error("Failed to list follow profiles")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, profiles)
	}
}

// NotificationsHandler lists the user's newest notifications.
func NotificationsHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, _, _ := actingUser(r)
		notes, err := c.Social.Notifications(r.Context(), userID, queryInt(r, "limit"))
		if err != nil {
			c.Logger.WithError(err).Error("Failed to list notifications")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, notes)
	}
}
