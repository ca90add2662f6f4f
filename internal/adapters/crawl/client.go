// internal/adapters/crawl/client.go
package crawl

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"accessible_travel/internal/adapters/observability"
	"accessible_travel/internal/domain"
)

const service = "crawl"

// extractPrompt asks the crawl API for structured hotel listings next to the markdown.
const extractPrompt = "List the wheelchair accessible hotels on this page with name, rating, accessibility features and link."

var extractSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"hotels": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":     map[string]any{"type": "string"},
					"rating":   map[string]any{"type": "number"},
					"features": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"url":      map[string]any{"type": "string"},
				},
				"required": []string{"name"},
			},
		},
	},
}

// Client talks to a Firecrawl-compatible scrape endpoint.
type Client struct {
	base       string
	hc         *http.Client
	key        string
	rl         *rate.Limiter
	maxRetries int
}

// New builds a client. An empty key is allowed: every call then fails with
// domain.ErrMissingCredential without touching the network.
func New(base, key string, rps, maxRetries int) *Client {
	if rps <= 0 {
		rps = 2
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		base:       strings.TrimRight(base, "/"),
		hc:         &http.Client{Timeout: 60 * time.Second},
		key:        key,
		rl:         rate.NewLimiter(rate.Limit(rps), rps),
		maxRetries: maxRetries,
	}
}

type scrapeRequest struct {
	URL     string         `json:"url"`
	Formats []string       `json:"formats"`
	Extract *extractParams `json:"extract,omitempty"`
}

type extractParams struct {
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type scrapeResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
}

// Scrape fetches one page through the crawl API and returns its data object.
func (c *Client) Scrape(ctx context.Context, pageURL string) (map[string]any, error) {
	if c.key == "" {
		return nil, domain.ErrMissingCredential
	}
	body := scrapeRequest{
		URL:     pageURL,
		Formats: []string{"markdown", "extract"},
		Extract: &extractParams{Prompt: extractPrompt, Schema: extractSchema},
	}
	var out scrapeResponse
	if err := c.post(ctx, c.base+"/v1/scrape", body, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "scrape reported failure"
		}
		return nil, &domain.UpstreamError{Service: service, Err: errors.New(msg)}
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: response has no data object", domain.ErrParse)
	}
	return out.Data, nil
}

// ---- Internals ----

var ErrUnauthorized = errors.New("crawl: unauthorized")

// post sends a JSON POST with client-side rate limiting and decodes JSON into out.
// 429 and transient 5xx are retried up to maxRetries times, honoring Retry-After.
func (c *Client) post(ctx context.Context, url string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "accessible-travel/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, "scrape", 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &domain.UpstreamError{Service: service, Err: err}
			if i < c.maxRetries && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, "scrape", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: decode scrape response: %v", domain.ErrParse, err)
			}
			return nil

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return &domain.UpstreamError{Service: service, Status: resp.StatusCode, Err: ErrUnauthorized}

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &domain.UpstreamError{Service: service, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
			if i < c.maxRetries && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// a small error body helps diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &domain.UpstreamError{Service: service, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(b)))}
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
