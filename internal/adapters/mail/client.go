package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"accessible_travel/internal/adapters/observability"
	"accessible_travel/internal/domain"
)

const service = "mail"

// Client sends plain-text mail through a transactional e-mail HTTP API
// (POST {base}/emails, bearer key).
type Client struct {
	base string
	key  string
	from string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key, from string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		from: from,
		hc:   &http.Client{Timeout: 15 * time.Second},
		rl:   rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (c *Client) Send(ctx context.Context, m domain.Message) error {
	if c.key == "" {
		return domain.ErrMissingCredential
	}
	if strings.TrimSpace(m.To) == "" || !strings.Contains(m.To, "@") {
		return fmt.Errorf("%w: recipient %q", domain.ErrInvalidInput, m.To)
	}
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(sendRequest{From: c.from, To: []string{m.To}, Subject: m.Subject, Text: m.Body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, "send", 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &domain.UpstreamError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, "send", resp.StatusCode, time.Since(start))

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &domain.UpstreamError{Service: service, Status: resp.StatusCode, Err: errors.New(msg)}
}
