package crawl

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"accessible_travel/internal/adapters/observability"
	"accessible_travel/internal/domain"
)

// Collector fetches review pages directly and returns their text blocks.
type Collector struct {
	timeout time.Duration
}

func NewCollector(timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Collector{timeout: timeout}
}

func (c *Collector) Collect(ctx context.Context, pageURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	col := colly.NewCollector(
		colly.UserAgent("accessible-travel/1.0"),
		colly.MaxDepth(1),
	)
	col.SetRequestTimeout(c.timeout)

	var blocks []string
	col.OnHTML("p, li, blockquote", func(e *colly.HTMLElement) {
		if t := strings.Join(strings.Fields(e.Text), " "); t != "" {
			blocks = append(blocks, t)
		}
	})
	col.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	var status int
	col.OnResponse(func(r *colly.Response) { status = r.StatusCode })
	col.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	start := time.Now()
	err := col.Visit(pageURL)
	col.Wait()
	observability.ObserveExternal("collector", "visit", status, time.Since(start))

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, &domain.UpstreamError{Service: "collector", Status: status, Err: err}
	}
	return blocks, nil
}
