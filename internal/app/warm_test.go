package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible_travel/internal/app"
	"accessible_travel/internal/domain"
)

func TestWarmService(t *testing.T) {
	sc := &fakeScraper{data: hotelPage("A", "B")}
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	hotels := newHotels(newMemStore(), sc, clk)
	w := app.NewWarmService(hotels, mustCatalog(t))
	ctx := context.Background()

	assert.Equal(t, []string{"Paris", "United States", "Barcelona", "Tokyo", "Kyoto", "Munich", "Berlin"}, w.Cities())

	r := w.WarmCity(ctx, "Paris", false)
	require.NoError(t, r.Err)
	assert.Equal(t, 2, r.Hotels)
	assert.False(t, r.Skipped)

	r = w.WarmCity(ctx, "Paris", false)
	assert.True(t, r.Skipped)
	assert.Equal(t, 1, sc.callCount())

	r = w.WarmCity(ctx, "Paris", true)
	assert.False(t, r.Skipped)
	assert.Equal(t, 2, sc.callCount())
}

func TestWarmService_MissingKey(t *testing.T) {
	hotels := newHotels(newMemStore(), &fakeScraper{err: domain.ErrMissingCredential}, &clock{t: time.Now()})
	r := app.NewWarmService(hotels, mustCatalog(t)).WarmCity(context.Background(), "Kyoto", false)
	assert.ErrorIs(t, r.Err, domain.ErrMissingCredential)
}
