package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Storage keys. Values under them are JSON; there is no schema versioning.
const (
	hotelCachePrefix   = "hotels_cache:"
	userTipsPrefix     = "user_tips:"
	experiencesPrefix  = "traveler_experiences:"
	KeyScrapedFeedback = "scraped_feedback"
	KeyPlannedTrip     = "planned_trip"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeCity lowercases and replaces each whitespace run with "_".
// Distinct spellings of one place ("St. Louis"/"Saint Louis") and same-named
// cities in different countries map to different/identical keys respectively.
func NormalizeCity(city string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(city), "_")
}

func HotelCacheKey(city string) string { return hotelCachePrefix + NormalizeCity(city) }

func UserTipsKey(destID int) string { return userTipsPrefix + strconv.Itoa(destID) }

func ExperiencesKey(destID int) string { return experiencesPrefix + strconv.Itoa(destID) }
