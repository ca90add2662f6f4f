package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day (UTC midnight). The zero value means "not set".
type Date struct{ time.Time }

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// DaysUntil returns the whole days from d to o (negative when o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) AddDays(n int) Date { return Date{d.Time.AddDate(0, 0, n)} }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// accept full timestamps from date pickers, keep the calendar day
	if len(s) > len(DateLayout) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", s, err)
		}
		*d = NewDate(t.Year(), t.Month(), t.Day())
		return nil
	}
	p, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// TripStop is one destination of an itinerary.
type TripStop struct {
	DestinationID int    `json:"destinationId"`
	City          string `json:"city"`
	Country       string `json:"country"`
	StartDate     Date   `json:"startDate"`
	EndDate       Date   `json:"endDate"`
}

// Label is the human name used in error messages.
func (s TripStop) Label() string {
	switch {
	case s.City != "" && s.Country != "" && s.City != s.Country:
		return s.City + ", " + s.Country
	case s.City != "":
		return s.City
	case s.Country != "":
		return s.Country
	}
	return fmt.Sprintf("destination %d", s.DestinationID)
}

// Nights is the number of nights between start and end (0 for same-day stops).
func (s TripStop) Nights() int {
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return 0
	}
	if n := s.StartDate.DaysUntil(s.EndDate); n > 0 {
		return n
	}
	return 0
}

// PlannedTrip is the single persisted itinerary; it is overwritten on every save.
type PlannedTrip struct {
	Stops     []TripStop `json:"destinations"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
