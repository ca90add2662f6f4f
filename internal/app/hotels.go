package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"accessible_travel/internal/adapters/observability"
	"accessible_travel/internal/domain"
)

// DefaultFreshness is how long a scraped hotel list is served from the cache.
const DefaultFreshness = 24 * time.Hour

// refreshTimeout bounds a shared refresh once it no longer follows its
// first caller's cancellation. It covers the crawl client timeout plus retries.
const refreshTimeout = 3 * time.Minute

// HotelService is the hotel cache in front of the crawl API. Freshness is
// evaluated on read; stale entries stay stored until the next refresh.
type HotelService struct {
	store     domain.KVStore
	scraper   domain.Scraper
	searchURL string // contains {city}
	maxAge    time.Duration
	now       func() time.Time
	sf        singleflight.Group
}

func NewHotelService(store domain.KVStore, scraper domain.Scraper, searchURL string, maxAge time.Duration) *HotelService {
	if maxAge <= 0 {
		maxAge = DefaultFreshness
	}
	return &HotelService{
		store:     store,
		scraper:   scraper,
		searchURL: searchURL,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// WithClock replaces the time source (tests).
func (s *HotelService) WithClock(now func() time.Time) *HotelService {
	s.now = now
	return s
}

// GetCached returns the stored entry for city when it is younger than the
// freshness window. Absent and stale entries both report false.
func (s *HotelService) GetCached(ctx context.Context, city string) (domain.HotelCacheEntry, bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.HotelCacheEntry{}, false, fmt.Errorf("%w: empty city", domain.ErrInvalidInput)
	}
	var e domain.HotelCacheEntry
	ok, err := s.store.Get(ctx, domain.HotelCacheKey(city), &e)
	if err != nil {
		return domain.HotelCacheEntry{}, false, fmt.Errorf("read hotel cache for %s: %w", city, err)
	}
	if !ok {
		observability.ObserveCache("hotels", "miss")
		return domain.HotelCacheEntry{}, false, nil
	}
	if !e.FreshAt(s.now(), s.maxAge) {
		observability.ObserveCache("hotels", "stale")
		return domain.HotelCacheEntry{}, false, nil
	}
	observability.ObserveCache("hotels", "hit")
	return e, true, nil
}

// Refresh drops the current entry, scrapes the search page for city and
// stores the result stamped with the current time. On failure no entry is
// left behind. Concurrent refreshes of one key share a single scrape; a
// caller that gives up only stops waiting for it.
func (s *HotelService) Refresh(ctx context.Context, city string) (domain.HotelCacheEntry, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.HotelCacheEntry{}, fmt.Errorf("%w: empty city", domain.ErrInvalidInput)
	}
	key := domain.HotelCacheKey(city)
	ch := s.sf.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return s.refresh(rctx, key, city)
	})
	select {
	case <-ctx.Done():
		return domain.HotelCacheEntry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.HotelCacheEntry{}, res.Err
		}
		if res.Shared {
			log.Debug().Str("city", city).Msg("hotel refresh coalesced")
		}
		return res.Val.(domain.HotelCacheEntry), nil
	}
}

func (s *HotelService) refresh(ctx context.Context, key, city string) (domain.HotelCacheEntry, error) {
	if err := s.store.Del(ctx, key); err != nil {
		return domain.HotelCacheEntry{}, fmt.Errorf("clear hotel cache for %s: %w", city, err)
	}

	pageURL := s.pageURL(city)
	start := time.Now()
	data, err := s.scraper.Scrape(ctx, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("city", city).Msg("hotel scrape failed")
		return domain.HotelCacheEntry{}, fmt.Errorf("scrape hotels for %s: %w", city, err)
	}
	hotels, err := mapHotels(data, pageURL)
	if err != nil {
		log.Warn().Err(err).Str("city", city).Msg("hotel listings unreadable")
		return domain.HotelCacheEntry{}, err
	}

	e := domain.HotelCacheEntry{City: city, Hotels: hotels, ScrapedAt: s.now().UTC()}
	if err := s.store.Set(ctx, key, e); err != nil {
		return domain.HotelCacheEntry{}, fmt.Errorf("store hotel cache for %s: %w", city, err)
	}
	log.Info().Str("city", city).Int("hotels", len(hotels)).Dur("took", time.Since(start)).Msg("hotel cache refreshed")
	return e, nil
}

// Fetch serves the cached entry when fresh and refreshes otherwise.
func (s *HotelService) Fetch(ctx context.Context, city string) (domain.HotelCacheEntry, error) {
	if e, ok, err := s.GetCached(ctx, city); err != nil || ok {
		return e, err
	}
	return s.Refresh(ctx, city)
}

func (s *HotelService) pageURL(city string) string {
	return strings.ReplaceAll(s.searchURL, "{city}", url.QueryEscape(city))
}
