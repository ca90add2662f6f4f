package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"accessible_travel/internal/catalog"
	"accessible_travel/internal/domain"
)

// WarmResult is the outcome of warming one city.
type WarmResult struct {
	City    string
	Hotels  int
	Skipped bool // a fresh entry was already cached
	Err     error
}

// WarmService fills the hotel cache for every catalog place.
type WarmService struct {
	hotels  *HotelService
	catalog domain.Catalog
}

func NewWarmService(h *HotelService, c domain.Catalog) *WarmService {
	return &WarmService{hotels: h, catalog: c}
}

// Cities lists one name per distinct cache key, in catalog order.
func (s *WarmService) Cities() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range s.catalog.Leaves() {
		name := catalog.CityName(l.Summary)
		k := domain.HotelCacheKey(name)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, name)
	}
	return out
}

// WarmCity refreshes one city unless a fresh entry exists and force is false.
// A missing crawl key is returned as an error so callers can stop early.
func (s *WarmService) WarmCity(ctx context.Context, city string, force bool) WarmResult {
	if !force {
		e, ok, err := s.hotels.GetCached(ctx, city)
		if err != nil {
			return WarmResult{City: city, Err: err}
		}
		if ok {
			return WarmResult{City: city, Hotels: len(e.Hotels), Skipped: true}
		}
	}
	e, err := s.hotels.Refresh(ctx, city)
	if err != nil {
		if !errors.Is(err, domain.ErrMissingCredential) {
			log.Warn().Err(err).Str("city", city).Msg("warm failed")
		}
		return WarmResult{City: city, Err: err}
	}
	return WarmResult{City: city, Hotels: len(e.Hotels)}
}
