package domain

import "context"

// KVStore is the persisted key-value store. Values are JSON encoded.
// Get reports false (and no error) when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Del(ctx context.Context, key string) error
}

// Scraper calls the third-party crawl API and returns the raw "data" object
// of the response (markdown, metadata and any structured extract).
type Scraper interface {
	Scrape(ctx context.Context, url string) (map[string]any, error)
}

// PageCollector fetches a page and returns its visible text blocks.
type PageCollector interface {
	Collect(ctx context.Context, url string) ([]string, error)
}

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Catalog is the read-only destination data set.
type Catalog interface {
	All() []Destination
	Find(id int) (Destination, error)
	Leaves() []*Leaf
	PlaceNames() []string
}
