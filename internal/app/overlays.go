package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"accessible_travel/internal/catalog"
	"accessible_travel/internal/domain"
)

const (
	maxTipRunes        = 500
	maxExperienceRunes = 4000
	maxPhotos          = 6
)

// OverlayService stores visitor contributions next to the curated catalog.
type OverlayService struct {
	store    domain.KVStore
	catalog  domain.Catalog
	feedback *FeedbackService
	locks    *keyLocks
	now      func() time.Time
	newID    func() string
}

func NewOverlayService(store domain.KVStore, c domain.Catalog, fb *FeedbackService) *OverlayService {
	return &OverlayService{
		store:    store,
		catalog:  c,
		feedback: fb,
		locks:    newKeyLocks(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *OverlayService) WithClock(now func() time.Time) *OverlayService {
	s.now = now
	return s
}

// AddTip validates and appends a user tip to the destination's list.
func (s *OverlayService) AddTip(ctx context.Context, destID int, in domain.UserTip) (domain.UserTip, error) {
	d, err := s.catalog.Find(destID)
	if err != nil {
		return domain.UserTip{}, err
	}
	tip := domain.UserTip{
		Text:      strings.TrimSpace(in.Text),
		Link:      strings.TrimSpace(in.Link),
		Category:  strings.TrimSpace(in.Category),
		PlaceName: strings.TrimSpace(in.PlaceName),
	}
	if err := checkText(tip.Text, maxTipRunes); err != nil {
		return domain.UserTip{}, err
	}
	if tip.Link != "" && !isWebURL(tip.Link) {
		return domain.UserTip{}, fmt.Errorf("%w: link must be an http(s) URL", domain.ErrInvalidInput)
	}
	if tip.Category == "" {
		tip.Category = "general"
	}
	if tip.PlaceName == "" {
		tip.PlaceName = catalog.CityName(d.Info())
	}
	tip.ID = s.newID()
	tip.SubmittedAt = s.now().UTC()

	if err := appendLocked(ctx, s.store, s.locks, domain.UserTipsKey(destID), tip); err != nil {
		return domain.UserTip{}, err
	}
	log.Info().Int("dest_id", destID).Str("tip_id", tip.ID).Msg("user tip added")
	return tip, nil
}

// UserTips lists a destination's tips in submission order.
func (s *OverlayService) UserTips(ctx context.Context, destID int) ([]domain.UserTip, error) {
	if _, err := s.catalog.Find(destID); err != nil {
		return nil, err
	}
	var list []domain.UserTip
	if _, err := s.store.Get(ctx, domain.UserTipsKey(destID), &list); err != nil {
		return nil, fmt.Errorf("load tips for %d: %w", destID, err)
	}
	return list, nil
}

// Tips merges curated, user and scraped tips for a destination. A category
// contributes the curated tips of its cities.
func (s *OverlayService) Tips(ctx context.Context, destID int) (domain.TipView, error) {
	d, err := s.catalog.Find(destID)
	if err != nil {
		return domain.TipView{}, err
	}
	view := domain.TipView{Curated: []domain.QuickTip{}, User: []domain.UserTip{}, Feedback: []domain.FeedbackTip{}}
	switch v := d.(type) {
	case *domain.Leaf:
		view.Curated = append(view.Curated, v.QuickTips...)
	case *domain.Category:
		for _, c := range v.Cities {
			view.Curated = append(view.Curated, c.QuickTips...)
		}
	}

	user, err := s.UserTips(ctx, destID)
	if err != nil {
		return domain.TipView{}, err
	}
	view.User = append(view.User, user...)

	if s.feedback != nil {
		seen := map[string]struct{}{}
		for _, name := range feedbackPlaces(d) {
			fb, err := s.feedback.FeedbackFor(ctx, name)
			if err != nil {
				return domain.TipView{}, err
			}
			for _, t := range fb {
				if _, dup := seen[t.ID]; dup {
					continue
				}
				seen[t.ID] = struct{}{}
				view.Feedback = append(view.Feedback, t)
			}
		}
	}
	return view, nil
}

// feedbackPlaces names the places whose scraped feedback belongs to d:
// the destination itself and, for a category, each of its cities.
func feedbackPlaces(d domain.Destination) []string {
	var names []string
	add := func(n string) {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	add(catalog.CityName(d.Info()))
	if c, ok := d.(*domain.Category); ok {
		for _, l := range c.Cities {
			add(catalog.CityName(l.Summary))
		}
	}
	return names
}

// AddExperience validates and appends a traveller experience.
func (s *OverlayService) AddExperience(ctx context.Context, destID int, in domain.TravelerExperience) (domain.TravelerExperience, error) {
	if _, err := s.catalog.Find(destID); err != nil {
		return domain.TravelerExperience{}, err
	}
	exp := domain.TravelerExperience{
		Author: strings.TrimSpace(in.Author),
		Text:   strings.TrimSpace(in.Text),
	}
	if err := checkText(exp.Text, maxExperienceRunes); err != nil {
		return domain.TravelerExperience{}, err
	}
	if len(in.Photos) > maxPhotos {
		return domain.TravelerExperience{}, fmt.Errorf("%w: at most %d photos", domain.ErrInvalidInput, maxPhotos)
	}
	for i, p := range in.Photos {
		u := strings.TrimSpace(p.URL)
		if !isWebURL(u) && !strings.HasPrefix(u, "data:image/") {
			return domain.TravelerExperience{}, fmt.Errorf("%w: photo %d needs an http(s) or data:image URL", domain.ErrInvalidInput, i)
		}
		exp.Photos = append(exp.Photos, domain.Photo{Name: strings.TrimSpace(p.Name), URL: u})
	}
	exp.ID = s.newID()
	exp.CreatedAt = s.now().UTC()

	if err := appendLocked(ctx, s.store, s.locks, domain.ExperiencesKey(destID), exp); err != nil {
		return domain.TravelerExperience{}, err
	}
	log.Info().Int("dest_id", destID).Str("experience_id", exp.ID).Msg("experience added")
	return exp, nil
}

func (s *OverlayService) Experiences(ctx context.Context, destID int) ([]domain.TravelerExperience, error) {
	if _, err := s.catalog.Find(destID); err != nil {
		return nil, err
	}
	list := []domain.TravelerExperience{}
	if _, err := s.store.Get(ctx, domain.ExperiencesKey(destID), &list); err != nil {
		return nil, fmt.Errorf("load experiences for %d: %w", destID, err)
	}
	return list, nil
}

// appendLocked runs a locked load, append, store cycle on one key.
func appendLocked[T any](ctx context.Context, store domain.KVStore, locks *keyLocks, key string, item T) error {
	unlock := locks.lock(key)
	defer unlock()

	var list []T
	if _, err := store.Get(ctx, key, &list); err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	list = append(list, item)
	if err := store.Set(ctx, key, list); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func checkText(text string, max int) error {
	if text == "" {
		return fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > max {
		return fmt.Errorf("%w: text has %d characters, limit is %d", domain.ErrInvalidInput, n, max)
	}
	return nil
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
