package reviews

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"serieer/internal/models"

	"github.com/sirupsen/logrus"
)

type fakeReviewStore struct {
	byTarget map[string]*models.Review
	byID     map[string]*models.Review
	deleted  []string
	likedNow bool
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{
		byTarget: map[string]*models.Review{},
		byID:     map[string]*models.Review{},
	}
}

func targetKey(userID string, seriesID int, scope models.Scope, season, episode int) string {
	return fmt.Sprintf("%s|%d|%s|%d|%d", userID, seriesID, scope, season, episode)
}

func (f *fakeReviewStore) FindReview(ctx context.Context, userID string, seriesID int, scope models.Scope, seasonNumber, episodeNumber int) (*models.Review, error) {
	return f.byTarget[targetKey(userID, seriesID, scope, seasonNumber, episodeNumber)], nil
}

func (f *fakeReviewStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	return f.byID[id], nil
}

func (f *fakeReviewStore) InsertReview(ctx context.Context, review *models.Review) error {
	f.byTarget[targetKey(review.UserID, review.SeriesID, review.Scope, review.SeasonNumber, review.EpisodeNumber)] = review
	f.byID[review.ID] = review
	return nil
}

func (f *fakeReviewStore) UpdateReview(ctx context.Context, review *models.Review) error {
	f.byID[review.ID] = review
	return nil
}

func (f *fakeReviewStore) DeleteReview(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

func (f *fakeReviewStore) ToggleReviewLike(ctx context.Context, id, userID string) (bool, error) {
	return f.likedNow, nil
}

type fakeRecorder struct {
	events []models.ActivityEvent
}

func (f *fakeRecorder) Record(ctx context.Context, event models.ActivityEvent) error {
	f.events = append(f.events, event)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestLedger(store Store, recorder Recorder) (*Ledger, *[]*models.Review, *[]*models.Review) {
	var submitted, deleted []*models.Review
	ledger := NewLedger(
		store,
		func(ctx context.Context, review *models.Review) error {
			submitted = append(submitted, review)
			return nil
		},
		func(ctx context.Context, review *models.Review) error {
			deleted = append(deleted, review)
			return nil
		},
		recorder,
		testLogger(),
	)
	return ledger, &submitted, &deleted
}

func seasonSubmission() Submission {
	return Submission{
		UserID:       "u1",
		UserName:     "Pat",
		SeriesID:     10,
		SeriesName:   "Test Series",
		Scope:        models.ScopeSeason,
		SeasonNumber: 1,
		Rating:       4,
		Text:         "great season",
	}
}

func TestSubmitCreatesReview(t *testing.T) {
	store := newFakeReviewStore()
	ledger, submitted, _ := newTestLedger(store, nil)

	review, err := ledger.Submit(context.Background(), seasonSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if review == nil || review.ID == "" {
		t.Fatalf("Submit() returned %+v, want review with generated id", review)
	}
	if review.CreatedAt.IsZero() || !review.CreatedAt.Equal(review.UpdatedAt) {
		t.Errorf("fresh review timestamps = %v / %v, want equal", review.CreatedAt, review.UpdatedAt)
	}
	if len(*submitted) != 1 {
		t.Errorf("achievement callback fired %d times, want 1", len(*submitted))
	}
}

func TestSubmitUpdatesInPlace(t *testing.T) {
	store := newFakeReviewStore()
	ledger, submitted, _ := newTestLedger(store, nil)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return created }
	first, err := ledger.Submit(context.Background(), seasonSubmission())
	if err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	first.LikedBy = []string{"fan1", "fan2"}

	later := created.Add(48 * time.Hour)
	ledger.now = func() time.Time { return later }

	sub := seasonSubmission()
	sub.Rating = 2
	sub.Text = "rewatched, weaker than I remembered"
	second, err := ledger.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("update produced new id %q, want %q", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want original %v", second.CreatedAt, created)
	}
	if !second.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", second.UpdatedAt, later)
	}
	if len(second.LikedBy) != 2 {
		t.Errorf("LikedBy = %v, want preserved likes", second.LikedBy)
	}
	if second.Rating != 2 || second.Text != sub.Text {
		t.Errorf("review content not updated: %+v", second)
	}
	if len(*submitted) != 1 {
		t.Errorf("achievement callback fired %d times, want 1 (create only)", len(*submitted))
	}
}

func TestSubmitMirrorsReviewedActivity(t *testing.T) {
	store := newFakeReviewStore()
	recorder := &fakeRecorder{}
	ledger, _, _ := newTestLedger(store, recorder)

	review, err := ledger.Submit(context.Background(), seasonSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(recorder.events) != 1 {
		t.Fatalf("recorded %d events, want 1 reviewed event", len(recorder.events))
	}
	event := recorder.events[0]
	if event.Type != models.EventReviewed {
		t.Errorf("event type = %s, want %s", event.Type, models.EventReviewed)
	}
	if event.UserID != review.UserID || event.SeriesID != review.SeriesID || event.SeasonNumber != review.SeasonNumber {
		t.Errorf("event target = %+v, want the reviewed season", event)
	}
	if event.Rating != review.Rating || event.Snippet != review.Text {
		t.Errorf("event rating/snippet = %v/%q, want %v/%q", event.Rating, event.Snippet, review.Rating, review.Text)
	}

	// Re-rating mirrors again; the recorder's replacement rule keeps the
	// event store at one entry per target.
	sub := seasonSubmission()
	sub.Rating = 3
	if _, err := ledger.Submit(context.Background(), sub); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if len(recorder.events) != 2 {
		t.Fatalf("recorded %d events after update, want 2", len(recorder.events))
	}
	if recorder.events[1].Rating != 3 {
		t.Errorf("updated event rating = %v, want 3", recorder.events[1].Rating)
	}
}

func TestSubmitSignedOut(t *testing.T) {
	store := newFakeReviewStore()
	ledger, submitted, _ := newTestLedger(store, nil)

	sub := seasonSubmission()
	sub.UserID = ""
	review, err := ledger.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if review != nil || len(store.byID) != 0 || len(*submitted) != 0 {
		t.Errorf("signed-out submit had side effects")
	}
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	ledger, _, _ := newTestLedger(newFakeReviewStore(), nil)

	for _, rating := range []float64{-1, 5.5} {
		sub := seasonSubmission()
		sub.Rating = rating
		if _, err := ledger.Submit(context.Background(), sub); err == nil {
			t.Errorf("Submit() with rating %v succeeded, want error", rating)
		}
	}
}

func TestDeleteForwardsToCallback(t *testing.T) {
	store := newFakeReviewStore()
	ledger, _, deleted := newTestLedger(store, nil)

	review, err := ledger.Submit(context.Background(), seasonSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := ledger.Delete(context.Background(), review.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != review.ID {
		t.Errorf("deleted ids = %v, want [%s]", store.deleted, review.ID)
	}
	if len(*deleted) != 1 || (*deleted)[0].ID != review.ID {
		t.Errorf("revocation callback got %v, want the deleted review", *deleted)
	}
}

func TestDeleteMissingReview(t *testing.T) {
	store := newFakeReviewStore()
	ledger, _, deleted := newTestLedger(store, nil)

	if err := ledger.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.deleted) != 0 || len(*deleted) != 0 {
		t.Errorf("missing review delete had side effects")
	}
}

func TestToggleLikeMirrorsActivity(t *testing.T) {
	store := newFakeReviewStore()
	recorder := &fakeRecorder{}
	ledger, _, _ := newTestLedger(store, recorder)

	review, err := ledger.Submit(context.Background(), seasonSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Submit already mirrored one reviewed event; the like adds a second.
	store.likedNow = true
	liked, err := ledger.ToggleLike(context.Background(), review.ID, "fan1")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if !liked {
		t.Fatalf("ToggleLike() = false, want true")
	}
	if len(recorder.events) != 2 {
		t.Fatalf("recorded %d events, want 2", len(recorder.events))
	}
	event := recorder.events[1]
	if event.Type != models.EventLikedReview || event.UserID != "fan1" || event.SeriesID != 10 {
		t.Errorf("mirrored event = %+v", event)
	}

	// Unliking records nothing.
	store.likedNow = false
	if _, err := ledger.ToggleLike(context.Background(), review.ID, "fan1"); err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if len(recorder.events) != 2 {
		t.Errorf("unlike recorded an event")
	}
}

func TestToggleLikeSignedOut(t *testing.T) {
	ledger, _, _ := newTestLedger(newFakeReviewStore(), &fakeRecorder{})

	liked, err := ledger.ToggleLike(context.Background(), "r1", "")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if liked {
		t.Errorf("signed-out ToggleLike() = true, want false")
	}
}
