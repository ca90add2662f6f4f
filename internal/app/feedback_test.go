package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible_travel/internal/app"
	"accessible_travel/internal/domain"
)

func TestExtractTips(t *testing.T) {
	places := []string{"Paris", "Louvre Museum", "Zürich", "Tokyo"}
	text := `We loved Paris. The Louvre Museum has a wheelchair loan desk and a ramp at the pyramid!
The lift in zurich station was broken
Tokyo is huge.   Parisian cafes are rarely step-free.
the louvre museum has a wheelchair loan desk and a ramp at the pyramid!
In Tokyo, every metro line has an elevator, tactile paving and accessible toilets, which made getting around with a wheelchair easy.`

	tips := app.ExtractTips(text, places)
	require.Len(t, tips, 3)

	assert.Equal(t, "Louvre Museum", tips[0].Place)
	assert.Equal(t, "The Louvre Museum has a wheelchair loan desk and a ramp at the pyramid!", tips[0].Text)
	// two keywords, length within range
	assert.InDelta(t, 0.65, tips[0].Confidence, 1e-9)

	assert.Equal(t, "Zürich", tips[1].Place)
	// one keyword, 37 characters
	assert.InDelta(t, 0.4, tips[1].Confidence, 1e-9)

	assert.Equal(t, "Tokyo", tips[2].Place)
	// elevator, tactile, accessible, wheelchair
	assert.InDelta(t, 0.95, tips[2].Confidence, 1e-9)
}

func TestExtractTips_FirstMentionedPlaceWins(t *testing.T) {
	tips := app.ExtractTips("From Tokyo to Paris the trains had ramps.", []string{"Paris", "Tokyo"})
	require.Len(t, tips, 1)
	assert.Equal(t, "Tokyo", tips[0].Place)
}

func TestExtractTips_ConfidenceCapped(t *testing.T) {
	s := "Paris: wheelchair, accessible, ramp, elevator, lift, braille, tactile, step-free and mobility support everywhere."
	tips := app.ExtractTips(s, []string{"Paris"})
	require.Len(t, tips, 1)
	assert.Equal(t, 1.0, tips[0].Confidence)
}

func TestExtractTips_KeywordsMatchWholeWords(t *testing.T) {
	places := []string{"Louvre Museum", "Tokyo"}
	cases := []struct {
		name string
		text string
		want int
	}{
		{"uplifting is not lift", "Our visit to the Louvre Museum was uplifting and the guides were kind to everyone.", 0},
		{"trampled is not ramp", "In Tokyo the crowds trampled the flower beds near the station.", 0},
		{"contactless is not tactile", "Every shop in Tokyo takes contactless payments these days.", 0},
		{"plural keyword", "Every entrance of the Louvre Museum now has ramps and lifts.", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, app.ExtractTips(tc.text, places), tc.want)
		})
	}
}

func newFeedback(t *testing.T, col domain.PageCollector) (*app.FeedbackService, *memStore) {
	store := newMemStore()
	clk := &clock{t: time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)}
	return app.NewFeedbackService(store, col, mustCatalog(t)).WithClock(clk.now), store
}

func TestFeedbackService_CollectAndQuery(t *testing.T) {
	col := &fakeCollector{
		pages: map[string][]string{
			"https://reviews.test/a": {
				"Tokyo Skytree has step-free access from the station.",
				"Munich trams are low-floor and wheelchair friendly.",
				"The food was great.",
			},
			"https://reviews.test/b": {"Munich trams are low-floor and wheelchair friendly."},
		},
		errs: map[string]error{"https://reviews.test/down": &domain.UpstreamError{Service: "collector", Status: 500, Err: errors.New("boom")}},
	}
	svc, store := newFeedback(t, col)
	ctx := context.Background()

	rep, err := svc.Collect(ctx, []string{"https://reviews.test/a", "https://reviews.test/down", "https://reviews.test/b"})
	require.NoError(t, err)
	assert.Equal(t, app.CollectReport{Pages: 3, Failed: 1, Found: 3, Added: 2}, rep)
	assert.True(t, store.has(domain.KeyScrapedFeedback))

	// a second run adds nothing new
	rep, err = svc.Collect(ctx, []string{"https://reviews.test/a"})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Added)

	munich, err := svc.FeedbackFor(ctx, "munich")
	require.NoError(t, err)
	require.Len(t, munich, 1)
	assert.Equal(t, "Munich", munich[0].Place)
	assert.Equal(t, "https://reviews.test/a", munich[0].SourceURL)
	assert.NotEmpty(t, munich[0].ID)

	sky, err := svc.FeedbackFor(ctx, "TOKYO")
	require.NoError(t, err)
	require.Len(t, sky, 1)
	assert.Equal(t, "Tokyo Skytree", sky[0].Place)

	all, err := svc.FeedbackFor(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFeedbackService_AllPagesFail(t *testing.T) {
	col := &fakeCollector{errs: map[string]error{"https://x.test": errors.New("dns")}}
	svc, store := newFeedback(t, col)
	_, err := svc.Collect(context.Background(), []string{"https://x.test"})
	assert.Error(t, err)
	assert.False(t, store.has(domain.KeyScrapedFeedback))
}
