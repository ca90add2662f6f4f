package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"accessible_travel/internal/catalog"
	"accessible_travel/internal/domain"
)

// ---- fakes ----

// memStore is a KVStore keeping JSON bytes like the real adapters do.
type memStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemStore() *memStore { return &memStore{m: map[string][]byte{}} }

func (s *memStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	s.mu.Lock()
	b, ok := s.m[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (s *memStore) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.m[key] = b
	s.mu.Unlock()
	return nil
}

func (s *memStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	return ok
}

type fakeScraper struct {
	mu      sync.Mutex
	calls   []string
	data    map[string]any
	err     error
	gate    chan struct{} // when set, Scrape blocks until closed
	entered chan struct{}
}

func (f *fakeScraper) Scrape(ctx context.Context, url string) (map[string]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.data, f.err
}

func (f *fakeScraper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCollector struct {
	pages map[string][]string
	errs  map[string]error
}

func (f *fakeCollector) Collect(ctx context.Context, url string) ([]string, error) {
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.pages[url], nil
}

type fakeMailer struct {
	sent []domain.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, m domain.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func date(s string) domain.Date {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func hotelPage(names ...string) map[string]any {
	hs := make([]any, 0, len(names))
	for _, n := range names {
		hs = append(hs, map[string]any{"name": n, "rating": 4.5, "features": []any{"step-free entrance"}})
	}
	return map[string]any{"extract": map[string]any{"hotels": hs}}
}
