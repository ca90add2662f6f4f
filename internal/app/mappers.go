package app

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"accessible_travel/internal/domain"
)

/********** alias registries (single source of truth) **********/

// listing arrays inside the crawl "data" object
var hotelListPaths = []string{"extract.hotels", "json.hotels", "extract.results", "extract.listings", "hotels"}

var hotelAliases = map[string][]string{
	"name":     {"name", "title", "hotel_name", "hotelName"},
	"rating":   {"rating", "stars", "score", "rating.value", "review_score"},
	"features": {"features", "amenities", "accessibility", "accessibility_features", "accessibilityFeatures"},
	"url":      {"url", "link", "reservation_url", "reservationUrl", "booking_url"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5" or "4.5/5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			if f := parseRating(v); f != nil {
				return f
			}
		}
	}
	return nil
}

var leadingNumber = regexp.MustCompile(`^\d+(?:[.,]\d+)?`)

func parseRating(s string) *float64 {
	s = strings.TrimSpace(s)
	num := leadingNumber.FindString(s)
	if num == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &f
}

// firstSliceStrings: accept []any with either strings or {name/label/text}, or a comma list.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		switch raw := lookupAny(m, k).(type) {
		case []any:
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t = strings.TrimSpace(t); t != "" {
						out = append(out, t)
					}
				case map[string]any:
					for _, f := range []string{"name", "label", "text"} {
						if s, ok := t[f].(string); ok && s != "" {
							out = append(out, s)
							break
						}
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			var out []string
			for _, p := range strings.Split(raw, ",") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

/********** hotel listings mapper **********/

// mapHotels turns the crawl "data" object into listings: the structured extract
// first, then link-list items in the markdown. No listings at all is ErrParse.
func mapHotels(data map[string]any, source string) ([]domain.ScrapedHotel, error) {
	if hs := mapExtract(data, source); len(hs) > 0 {
		return hs, nil
	}
	if md := lookupStr(data, "markdown"); md != "" {
		if hs := mapMarkdown(md, source); len(hs) > 0 {
			return hs, nil
		}
	}
	return nil, fmt.Errorf("%w: no hotel listings in page %s", domain.ErrParse, source)
}

func mapExtract(data map[string]any, source string) []domain.ScrapedHotel {
	for _, p := range hotelListPaths {
		raw, ok := lookupAny(data, p).([]any)
		if !ok {
			continue
		}
		out := make([]domain.ScrapedHotel, 0, len(raw))
		for _, it := range raw {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			name := firstNonEmptyAlias(m, hotelAliases, "name")
			if name == "" {
				log.Debug().Str("context", "mapExtract").Msg("listing without a name skipped")
				continue
			}
			out = append(out, domain.ScrapedHotel{
				Name:     name,
				Rating:   normalizeRating(getFloatFlexible(m, hotelAliases["rating"]...)),
				Features: firstSliceStrings(m, hotelAliases["features"]...),
				URL:      firstNonEmptyAlias(m, hotelAliases, "url"),
				Source:   source,
			})
		}
		if len(out) > 0 {
			return dedupHotels(out)
		}
	}
	return nil
}

var (
	mdLinkItem  = regexp.MustCompile(`^\s*(?:[-*+]|\d+\.)\s+\[([^\]]+)\]\((https?://[^)\s]+)\)(.*)$`)
	mdRating    = regexp.MustCompile(`(\d(?:[.,]\d)?)\s*(?:/\s*5|stars?|★)`)
	mdSeparator = regexp.MustCompile(`\s*[,;•|]\s*`)
)

// mapMarkdown reads "- [Name](url) rest" items whose line mentions accessibility.
func mapMarkdown(md, source string) []domain.ScrapedHotel {
	var out []domain.ScrapedHotel
	for _, line := range strings.Split(md, "\n") {
		m := mdLinkItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if len(matchKeywords(fold(line))) == 0 {
			continue
		}
		h := domain.ScrapedHotel{
			Name:   strings.TrimSpace(strings.Trim(m[1], "*_")),
			URL:    m[2],
			Source: source,
		}
		rest := strings.TrimSpace(strings.TrimLeft(m[3], " -–:"))
		if r := mdRating.FindStringSubmatch(rest); r != nil {
			h.Rating = normalizeRating(parseRating(r[1]))
			rest = strings.TrimSpace(strings.Replace(rest, r[0], "", 1))
		}
		for _, f := range mdSeparator.Split(rest, -1) {
			if f = strings.Trim(f, " -–:."); f != "" {
				h.Features = append(h.Features, f)
			}
		}
		out = append(out, h)
	}
	return dedupHotels(out)
}

// normalizeRating keeps ratings on a 0..5 scale; 10-point scores are halved.
func normalizeRating(f *float64) *float64 {
	if f == nil || *f <= 0 {
		return nil
	}
	v := *f
	if v > 5 && v <= 10 {
		v = v / 2
	}
	if v > 5 {
		return nil
	}
	return &v
}

func dedupHotels(in []domain.ScrapedHotel) []domain.ScrapedHotel {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, h := range in {
		k := fold(h.Name)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, h)
	}
	return out
}
