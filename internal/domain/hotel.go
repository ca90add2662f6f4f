package domain

import "time"

// ScrapedHotel is one listing extracted from a crawled search page.
type ScrapedHotel struct {
	Name     string   `json:"name"`
	Rating   *float64 `json:"rating,omitempty"`
	Features []string `json:"features,omitempty"`
	URL      string   `json:"url,omitempty"`
	Source   string   `json:"source,omitempty"` // page the listing was scraped from
}

// HotelCacheEntry is what gets stored per normalised city key.
// ScrapedAt is encoded as RFC 3339.
type HotelCacheEntry struct {
	City      string         `json:"city"`
	Hotels    []ScrapedHotel `json:"hotels"`
	ScrapedAt time.Time      `json:"scrapedAt"`
}

// FreshAt reports whether the entry is younger than maxAge at now.
func (e HotelCacheEntry) FreshAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.ScrapedAt) < maxAge
}
