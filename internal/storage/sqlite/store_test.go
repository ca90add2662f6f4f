package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible_travel/internal/domain"
	"accessible_travel/internal/storage/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "travel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGetOverwrite(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	trip := domain.PlannedTrip{
		Stops: []domain.TripStop{{
			DestinationID: 21, City: "Tokyo", Country: "Japan",
			StartDate: domain.NewDate(2025, time.March, 1),
			EndDate:   domain.NewDate(2025, time.March, 5),
		}},
		UpdatedAt: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Set(ctx, domain.KeyPlannedTrip, trip))

	trip.Stops[0].EndDate = domain.NewDate(2025, time.March, 7)
	require.NoError(t, s.Set(ctx, domain.KeyPlannedTrip, trip))

	var got domain.PlannedTrip
	ok, err := s.Get(ctx, domain.KeyPlannedTrip, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, trip, got)
}

func TestStore_MissingAndDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var tips []domain.FeedbackTip
	ok, err := s.Get(ctx, domain.KeyScrapedFeedback, &tips)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, domain.KeyScrapedFeedback, []domain.FeedbackTip{{ID: "x", Place: "Paris", Text: "Step-free metro line 14"}}))
	require.NoError(t, s.Del(ctx, domain.KeyScrapedFeedback))
	// deleting an absent key is not an error
	require.NoError(t, s.Del(ctx, domain.KeyScrapedFeedback))

	ok, err = s.Get(ctx, domain.KeyScrapedFeedback, &tips)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travel.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), domain.ExperiencesKey(1), []domain.TravelerExperience{{ID: "e1", Text: "Great ramps"}}))
	require.NoError(t, s.Close())

	s, err = sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()
	var got []domain.TravelerExperience
	ok, err := s.Get(context.Background(), domain.ExperiencesKey(1), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Great ramps", got[0].Text)
}
