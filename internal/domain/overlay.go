package domain

import "time"

// UserTip is a quick tip submitted by a visitor. Never expires.
type UserTip struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Link        string    `json:"link,omitempty"`
	Category    string    `json:"category"`
	PlaceName   string    `json:"placeName"`
	SubmittedAt time.Time `json:"timestamp"`
}

type Photo struct {
	Name string `json:"name"`
	URL  string `json:"url"` // remote URL or data: URI
}

// TravelerExperience is a free-text testimonial, append-only per destination.
type TravelerExperience struct {
	ID        string    `json:"id"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	Photos    []Photo   `json:"photos,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackTip is a sentence extracted from a crawled page and tagged with the
// place it mentions. Stored in one flat list shared by all destinations.
type FeedbackTip struct {
	ID          string    `json:"id"`
	Place       string    `json:"city"`
	Text        string    `json:"text"`
	Confidence  float64   `json:"confidence"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// TipView is the merged read model for a destination's tips.
type TipView struct {
	Curated  []QuickTip    `json:"curated"`
	User     []UserTip     `json:"user"`
	Feedback []FeedbackTip `json:"feedback"`
}
