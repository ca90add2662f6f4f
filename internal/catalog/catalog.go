// Package catalog loads the curated destination data and resolves ids.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"accessible_travel/internal/domain"
)

//go:embed data/destinations.json
var defaultData []byte

// record is the on-disk shape: one struct for both kinds, told apart by isCategory.
type record struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	Rating      float64  `json:"rating"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
	IsCategory  bool     `json:"isCategory"`
	Cities      []record `json:"cities"`
	domain.Details
}

type Catalog struct {
	top []domain.Destination
}

// Default loads the data set embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultData))
}

// Load decodes and validates a destination list. Any invariant violation
// (duplicate id, rating out of range, malformed category) is an error.
func Load(r io.Reader) (*Catalog, error) {
	var recs []record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	c := &Catalog{top: make([]domain.Destination, 0, len(recs))}
	for _, rec := range recs {
		d, err := toDestination(rec, false)
		if err != nil {
			return nil, err
		}
		c.top = append(c.top, d)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func toDestination(rec record, nested bool) (domain.Destination, error) {
	sum := domain.Summary{
		ID:          rec.ID,
		Country:     rec.Name,
		City:        rec.City,
		Rating:      rec.Rating,
		Description: rec.Description,
		Highlights:  rec.Highlights,
	}
	if !rec.IsCategory {
		if len(rec.Cities) > 0 {
			return nil, fmt.Errorf("catalog: destination %d has nested cities but is not a category", rec.ID)
		}
		return &domain.Leaf{Summary: sum, Details: rec.Details}, nil
	}

	if nested {
		return nil, fmt.Errorf("catalog: category %d is nested inside another category", rec.ID)
	}
	if len(rec.Cities) == 0 {
		return nil, fmt.Errorf("catalog: category %d has no cities", rec.ID)
	}
	if hasDetails(rec.Details) {
		return nil, fmt.Errorf("catalog: category %d carries leaf details", rec.ID)
	}
	cat := &domain.Category{Summary: sum, Cities: make([]*domain.Leaf, 0, len(rec.Cities))}
	for _, child := range rec.Cities {
		d, err := toDestination(child, true)
		if err != nil {
			return nil, err
		}
		cat.Cities = append(cat.Cities, d.(*domain.Leaf))
	}
	return cat, nil
}

func hasDetails(d domain.Details) bool {
	return len(d.EmergencyNumbers) > 0 || len(d.Attractions) > 0 || len(d.Hotels) > 0 ||
		len(d.WheelchairServices) > 0 || len(d.QuickTips) > 0 || len(d.TopDining) > 0 ||
		len(d.StateFeatures) > 0
}

func (c *Catalog) validate() error {
	seen := make(map[int]string)
	for _, d := range c.Flatten() {
		s := d.Info()
		label := s.Country + "/" + s.City
		if prev, ok := seen[s.ID]; ok {
			return fmt.Errorf("catalog: duplicate id %d (%s and %s)", s.ID, prev, label)
		}
		seen[s.ID] = label

		if s.Rating != 0 && (s.Rating < 1 || s.Rating > 5) {
			return fmt.Errorf("catalog: destination %d rating %.1f outside 1..5", s.ID, s.Rating)
		}
		if leaf, ok := d.(*domain.Leaf); ok {
			for _, ws := range leaf.WheelchairServices {
				if !ws.Type.Valid() {
					return fmt.Errorf("catalog: destination %d service %q has type %q", s.ID, ws.Name, ws.Type)
				}
			}
		}
	}
	return nil
}

// All returns the top-level destinations in data order.
func (c *Catalog) All() []domain.Destination {
	out := make([]domain.Destination, len(c.top))
	copy(out, c.top)
	return out
}

// Flatten lists top-level destinations first, then every category's cities,
// which is the order Find searches in.
func (c *Catalog) Flatten() []domain.Destination {
	out := make([]domain.Destination, 0, len(c.top)*2)
	out = append(out, c.top...)
	for _, d := range c.top {
		if cat, ok := d.(*domain.Category); ok {
			for _, l := range cat.Cities {
				out = append(out, l)
			}
		}
	}
	return out
}

// Find resolves an id: top-level list first, then nested lists, first match wins.
func (c *Catalog) Find(id int) (domain.Destination, error) {
	for _, d := range c.top {
		if d.Info().ID == id {
			return d, nil
		}
	}
	for _, d := range c.top {
		cat, ok := d.(*domain.Category)
		if !ok {
			continue
		}
		for _, l := range cat.Cities {
			if l.ID == id {
				return l, nil
			}
		}
	}
	return nil, fmt.Errorf("destination %d: %w", id, domain.ErrNotFound)
}

// Leaves returns every destination with its own details, in Flatten order.
func (c *Catalog) Leaves() []*domain.Leaf {
	var out []*domain.Leaf
	for _, d := range c.Flatten() {
		if l, ok := d.(*domain.Leaf); ok {
			out = append(out, l)
		}
	}
	return out
}

// CityName is the name used for hotel lookups and feedback matching.
func CityName(s domain.Summary) string {
	if strings.TrimSpace(s.City) != "" {
		return s.City
	}
	return s.Country
}

// PlaceNames lists city and attraction names, deduplicated case-insensitively.
func (c *Catalog) PlaceNames() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(n string) {
		n = strings.TrimSpace(n)
		if n == "" {
			return
		}
		k := strings.ToLower(n)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	for _, l := range c.Leaves() {
		add(CityName(l.Summary))
	}
	for _, l := range c.Leaves() {
		for _, a := range l.Attractions {
			add(a.Name)
		}
	}
	return out
}
