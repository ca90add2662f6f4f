package app

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"accessible_travel/internal/adapters/observability"
	"accessible_travel/internal/domain"
)

// ExtractedTip is a candidate feedback tip before it is stored.
type ExtractedTip struct {
	Place      string
	Text       string
	Confidence float64
}

var sentenceBreak = regexp.MustCompile(`[.!?]+["'’)\]]*\s+|\n+`)

// ExtractTips pulls accessibility remarks out of free text.
//
// The text is split into sentences. A sentence is kept when it mentions at
// least one accessibility keyword and at least one of places (compared
// case- and accent-insensitively, on word boundaries). It is tagged with the
// place mentioned first. Confidence starts at 0.4, gains 0.15 per extra
// distinct keyword and 0.1 when the sentence is 40 to 280 characters long,
// capped at 1. Sentences repeating an earlier one are dropped.
func ExtractTips(text string, places []string) []ExtractedTip {
	type place struct{ name, folded string }
	ps := make([]place, 0, len(places))
	for _, p := range places {
		if p = strings.TrimSpace(p); p != "" {
			ps = append(ps, place{name: p, folded: fold(p)})
		}
	}

	var out []ExtractedTip
	seen := map[string]struct{}{}
	for _, s := range splitSentences(text) {
		f := fold(s)
		kws := matchKeywords(f)
		if len(kws) == 0 {
			continue
		}
		best, bestAt := "", -1
		for _, p := range ps {
			i := indexWord(f, p.folded)
			if i < 0 {
				continue
			}
			if bestAt < 0 || i < bestAt || (i == bestAt && len(p.folded) > len(fold(best))) {
				best, bestAt = p.name, i
			}
		}
		if bestAt < 0 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, ExtractedTip{Place: best, Text: s, Confidence: confidence(len(kws), utf8.RuneCountInString(s))})
	}
	return out
}

func confidence(keywords, length int) float64 {
	c := 0.4 + 0.15*float64(keywords-1)
	if length >= 40 && length <= 280 {
		c += 0.1
	}
	if c > 1 {
		c = 1
	}
	return math.Round(c*100) / 100
}

func splitSentences(text string) []string {
	var out []string
	add := func(s string) {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			out = append(out, s)
		}
	}
	start := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		add(text[start:loc[1]])
		start = loc[1]
	}
	add(text[start:])
	return out
}

// CollectReport summarises one collection run.
type CollectReport struct {
	Pages  int `json:"pages"`
	Failed int `json:"failed"`
	Found  int `json:"found"`
	Added  int `json:"added"`
}

// FeedbackService gathers traveller remarks from review pages and serves
// them by place.
type FeedbackService struct {
	store     domain.KVStore
	collector domain.PageCollector
	catalog   domain.Catalog
	locks     *keyLocks
	now       func() time.Time
}

func NewFeedbackService(store domain.KVStore, collector domain.PageCollector, c domain.Catalog) *FeedbackService {
	return &FeedbackService{store: store, collector: collector, catalog: c, locks: newKeyLocks(), now: time.Now}
}

func (s *FeedbackService) WithClock(now func() time.Time) *FeedbackService {
	s.now = now
	return s
}

// Collect visits each page, extracts tips about catalog places and appends
// the new ones to the shared feedback list. Page failures are counted and
// skipped; the run fails only when every page failed.
func (s *FeedbackService) Collect(ctx context.Context, urls []string) (CollectReport, error) {
	var rep CollectReport
	if s.collector == nil || len(urls) == 0 {
		return rep, nil
	}
	places := s.catalog.PlaceNames()

	type found struct {
		tip ExtractedTip
		src string
	}
	var all []found
	var lastErr error
	for _, u := range urls {
		rep.Pages++
		blocks, err := s.collector.Collect(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			rep.Failed++
			lastErr = err
			log.Warn().Err(err).Str("url", u).Msg("feedback page failed")
			continue
		}
		for _, t := range ExtractTips(strings.Join(blocks, "\n"), places) {
			all = append(all, found{tip: t, src: u})
		}
	}
	rep.Found = len(all)
	if rep.Failed == rep.Pages {
		return rep, fmt.Errorf("collect feedback: all %d pages failed: %w", rep.Pages, lastErr)
	}

	unlock := s.locks.lock(domain.KeyScrapedFeedback)
	defer unlock()

	var list []domain.FeedbackTip
	if _, err := s.store.Get(ctx, domain.KeyScrapedFeedback, &list); err != nil {
		return rep, fmt.Errorf("load feedback: %w", err)
	}
	seen := make(map[string]struct{}, len(list))
	for _, t := range list {
		seen[fold(t.Place)+"|"+fold(t.Text)] = struct{}{}
	}
	now := s.now().UTC()
	for _, f := range all {
		k := fold(f.tip.Place) + "|" + fold(f.tip.Text)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		list = append(list, domain.FeedbackTip{
			ID:          uuid.NewString(),
			Place:       f.tip.Place,
			Text:        f.tip.Text,
			Confidence:  f.tip.Confidence,
			SourceURL:   f.src,
			ExtractedAt: now,
		})
		rep.Added++
	}
	if rep.Added > 0 {
		if err := s.store.Set(ctx, domain.KeyScrapedFeedback, list); err != nil {
			return rep, fmt.Errorf("store feedback: %w", err)
		}
	}
	observability.ObserveFeedback(rep.Added)
	log.Info().Int("pages", rep.Pages).Int("failed", rep.Failed).Int("added", rep.Added).Msg("feedback collected")
	return rep, nil
}

// FeedbackFor returns stored tips whose place contains city, ignoring case
// and accents. An empty city returns everything.
func (s *FeedbackService) FeedbackFor(ctx context.Context, city string) ([]domain.FeedbackTip, error) {
	var list []domain.FeedbackTip
	if _, err := s.store.Get(ctx, domain.KeyScrapedFeedback, &list); err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	q := fold(strings.TrimSpace(city))
	out := make([]domain.FeedbackTip, 0, len(list))
	for _, t := range list {
		if q == "" || strings.Contains(fold(t.Place), q) {
			out = append(out, t)
		}
	}
	return out, nil
}
