package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible_travel/internal/app"
	"accessible_travel/internal/domain"
)

const searchURL = "https://search.example.test/hotels?q={city}+wheelchair+accessible"

func newHotels(store domain.KVStore, sc domain.Scraper, clk *clock) *app.HotelService {
	return app.NewHotelService(store, sc, searchURL, 0).WithClock(clk.now)
}

func TestHotels_RefreshThenCached(t *testing.T) {
	store := newMemStore()
	sc := &fakeScraper{data: hotelPage("Hotel Lumiere", "Maison Accessible")}
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newHotels(store, sc, clk)
	ctx := context.Background()

	e, err := svc.Refresh(ctx, "New York")
	require.NoError(t, err)
	assert.Equal(t, "New York", e.City)
	assert.Len(t, e.Hotels, 2)
	assert.Equal(t, clk.t, e.ScrapedAt)
	assert.Equal(t, []string{"https://search.example.test/hotels?q=New+York+wheelchair+accessible"}, sc.calls)
	assert.True(t, store.has("hotels_cache:new_york"))

	got, ok, err := svc.GetCached(ctx, "new  york")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e, got)

	// reads are idempotent
	again, ok, err := svc.GetCached(ctx, "New York")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, got, again)
}

func TestHotels_StaleAtExactlyOneDay(t *testing.T) {
	store := newMemStore()
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newHotels(store, &fakeScraper{data: hotelPage("A")}, clk)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "Kyoto")
	require.NoError(t, err)

	clk.advance(24*time.Hour - time.Second)
	_, ok, err := svc.GetCached(ctx, "Kyoto")
	require.NoError(t, err)
	assert.True(t, ok, "just under a day old is fresh")

	clk.advance(time.Second)
	_, ok, err = svc.GetCached(ctx, "Kyoto")
	require.NoError(t, err)
	assert.False(t, ok, "a day old is stale")
	// stale entries are not deleted on read
	assert.True(t, store.has(domain.HotelCacheKey("Kyoto")))
}

func TestHotels_RefreshWithoutKeyLeavesNoEntry(t *testing.T) {
	store := newMemStore()
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Set(context.Background(), domain.HotelCacheKey("Paris"), domain.HotelCacheEntry{
		City: "Paris", Hotels: []domain.ScrapedHotel{{Name: "Old"}}, ScrapedAt: clk.t,
	}))
	svc := newHotels(store, &fakeScraper{err: domain.ErrMissingCredential}, clk)

	_, err := svc.Refresh(context.Background(), "Paris")
	require.ErrorIs(t, err, domain.ErrMissingCredential)

	_, ok, err := svc.GetCached(context.Background(), "Paris")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHotels_UpstreamAndParseFailures(t *testing.T) {
	clk := &clock{t: time.Now()}
	ctx := context.Background()

	up := &domain.UpstreamError{Service: "crawl", Status: 503, Err: errors.New("unavailable")}
	_, err := newHotels(newMemStore(), &fakeScraper{err: up}, clk).Refresh(ctx, "Berlin")
	assert.ErrorIs(t, err, domain.ErrUpstream)

	empty := &fakeScraper{data: map[string]any{"markdown": "# Nothing to see"}}
	store := newMemStore()
	_, err = newHotels(store, empty, clk).Refresh(ctx, "Berlin")
	assert.ErrorIs(t, err, domain.ErrParse)
	assert.False(t, store.has(domain.HotelCacheKey("Berlin")))
}

func TestHotels_FetchUsesFreshCache(t *testing.T) {
	sc := &fakeScraper{data: hotelPage("A")}
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := newHotels(newMemStore(), sc, clk)
	ctx := context.Background()

	_, err := svc.Fetch(ctx, "Munich")
	require.NoError(t, err)
	_, err = svc.Fetch(ctx, "Munich")
	require.NoError(t, err)
	assert.Equal(t, 1, sc.callCount())

	clk.advance(25 * time.Hour)
	e, err := svc.Fetch(ctx, "Munich")
	require.NoError(t, err)
	assert.Equal(t, 2, sc.callCount())
	assert.Equal(t, clk.t, e.ScrapedAt)
}

func TestHotels_EmptyCity(t *testing.T) {
	svc := newHotels(newMemStore(), &fakeScraper{}, &clock{t: time.Now()})
	_, _, err := svc.GetCached(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHotels_ConcurrentRefreshesShareOneScrape(t *testing.T) {
	sc := &fakeScraper{data: hotelPage("A"), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc := newHotels(newMemStore(), sc, &clock{t: time.Now()})

	var wg sync.WaitGroup
	results := make([]domain.HotelCacheEntry, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := svc.Refresh(context.Background(), "Barcelona")
			assert.NoError(t, err)
			results[i] = e
		}(i)
		if i == 0 {
			<-sc.entered
		}
	}
	// let the second caller join the in-flight refresh
	time.Sleep(100 * time.Millisecond)
	close(sc.gate)
	wg.Wait()

	assert.Equal(t, 1, sc.callCount())
	assert.Equal(t, results[0], results[1])
}

func TestHotels_CancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	sc := &fakeScraper{data: hotelPage("A"), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	store := newMemStore()
	svc := newHotels(store, sc, &clock{t: time.Now()})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctxA, "Tokyo")
		errA <- err
	}()
	<-sc.entered

	type result struct {
		e   domain.HotelCacheEntry
		err error
	}
	resB := make(chan result, 1)
	go func() {
		e, err := svc.Refresh(context.Background(), "Tokyo")
		resB <- result{e, err}
	}()
	// let B join the in-flight refresh before A goes away
	time.Sleep(100 * time.Millisecond)
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(sc.gate)
	b := <-resB
	require.NoError(t, b.err)
	assert.Len(t, b.e.Hotels, 1)
	assert.Equal(t, 1, sc.callCount())

	_, ok, err := svc.GetCached(context.Background(), "tokyo")
	require.NoError(t, err)
	assert.True(t, ok)
}
