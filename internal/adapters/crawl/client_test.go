package crawl_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"accessible_travel/internal/adapters/crawl"
	"accessible_travel/internal/domain"
)

func TestClient_Scrape_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/scrape" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["url"] != "https://example.test/hotels?q=paris" {
				t.Errorf("url in body = %v", body["url"])
			}
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data":    map[string]any{"markdown": "# Hotels"},
			})
		}
	}))
	defer ts.Close()

	cl := crawl.New(ts.URL, "test-key", 100, 3) // high RPS for tests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.Scrape(ctx, "https://example.test/hotels?q=paris")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got["markdown"] != "# Hotels" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Scrape_NoRetriesByDefault(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(502)
	}))
	defer ts.Close()

	cl := crawl.New(ts.URL, "test-key", 100, 0)
	_, err := cl.Scrape(context.Background(), "https://example.test")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.Status != 502 {
		t.Fatalf("expected status 502, got %+v", ue)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single call, got %d", n)
	}
}

func TestClient_Scrape_MissingKey(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	cl := crawl.New(ts.URL, "", 100, 0)
	_, err := cl.Scrape(context.Background(), "https://example.test")
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("no request expected without a key")
	}
}

func TestClient_Scrape_ReportedFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "blocked by target"})
	}))
	defer ts.Close()

	cl := crawl.New(ts.URL, "k", 100, 0)
	_, err := cl.Scrape(context.Background(), "https://example.test")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClient_Scrape_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": tru`))
	}))
	defer ts.Close()

	cl := crawl.New(ts.URL, "k", 100, 0)
	_, err := cl.Scrape(context.Background(), "https://example.test")
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestClient_Scrape_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl := crawl.New(ts.URL, "wrong", 100, 2)
	_, err := cl.Scrape(context.Background(), "https://example.test")
	if !errors.Is(err, crawl.ErrUnauthorized) || !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected unauthorized upstream error, got %v", err)
	}
}
