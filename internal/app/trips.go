package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"accessible_travel/internal/domain"
)

// ValidateItinerary checks that every stop has both dates and that no two
// stops overlap once ordered by start date. A stop may start on the day the
// previous one ends. The input is not modified.
func ValidateItinerary(stops []domain.TripStop) error {
	for i, s := range stops {
		if s.StartDate.IsZero() {
			return &domain.IncompleteItineraryError{Index: i, Stop: s, Missing: "startDate"}
		}
		if s.EndDate.IsZero() {
			return &domain.IncompleteItineraryError{Index: i, Stop: s, Missing: "endDate"}
		}
	}
	sorted := sortedByStart(stops)
	for i := 0; i+1 < len(sorted); i++ {
		cur, next := sorted[i], sorted[i+1]
		if cur.EndDate.After(next.StartDate.Time) {
			return &domain.DateConflictError{Current: cur, Next: next}
		}
	}
	return nil
}

// sortedByStart returns a stable-sorted copy; ties keep input order.
func sortedByStart(stops []domain.TripStop) []domain.TripStop {
	out := slices.Clone(stops)
	slices.SortStableFunc(out, func(a, b domain.TripStop) int {
		return a.StartDate.Compare(b.StartDate.Time)
	})
	return out
}

// TripService persists the single planned trip.
type TripService struct {
	store   domain.KVStore
	catalog domain.Catalog
	mailer  domain.Mailer
	now     func() time.Time
	mu      sync.Mutex
}

func NewTripService(store domain.KVStore, c domain.Catalog, mailer domain.Mailer) *TripService {
	return &TripService{store: store, catalog: c, mailer: mailer, now: time.Now}
}

func (s *TripService) WithClock(now func() time.Time) *TripService {
	s.now = now
	return s
}

// Resolve fills city and country of each stop from the catalog.
func (s *TripService) Resolve(stops []domain.TripStop) ([]domain.TripStop, error) {
	out := make([]domain.TripStop, len(stops))
	for i, st := range stops {
		d, err := s.catalog.Find(st.DestinationID)
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", i, err)
		}
		info := d.Info()
		st.City, st.Country = info.City, info.Country
		out[i] = st
	}
	return out, nil
}

// Save resolves and validates stops, then overwrites the stored trip.
func (s *TripService) Save(ctx context.Context, stops []domain.TripStop) (domain.PlannedTrip, error) {
	resolved, err := s.Resolve(stops)
	if err != nil {
		return domain.PlannedTrip{}, err
	}
	if err := ValidateItinerary(resolved); err != nil {
		return domain.PlannedTrip{}, err
	}
	for i, st := range resolved {
		if st.EndDate.Before(st.StartDate.Time) {
			return domain.PlannedTrip{}, fmt.Errorf("%w: stop %d (%s) ends before it starts", domain.ErrInvalidInput, i, st.Label())
		}
	}

	trip := domain.PlannedTrip{Stops: resolved, UpdatedAt: s.now().UTC()}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, domain.KeyPlannedTrip, trip); err != nil {
		return domain.PlannedTrip{}, fmt.Errorf("save trip: %w", err)
	}
	log.Info().Int("stops", len(trip.Stops)).Msg("planned trip saved")
	return trip, nil
}

func (s *TripService) Load(ctx context.Context) (domain.PlannedTrip, bool, error) {
	var trip domain.PlannedTrip
	ok, err := s.store.Get(ctx, domain.KeyPlannedTrip, &trip)
	if err != nil {
		return domain.PlannedTrip{}, false, fmt.Errorf("load trip: %w", err)
	}
	return trip, ok, nil
}

func (s *TripService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Del(ctx, domain.KeyPlannedTrip)
}

// Current loads the stored trip and fails with ErrNotFound when there is none.
func (s *TripService) Current(ctx context.Context) (domain.PlannedTrip, error) {
	trip, ok, err := s.Load(ctx)
	if err != nil {
		return domain.PlannedTrip{}, err
	}
	if !ok || len(trip.Stops) == 0 {
		return domain.PlannedTrip{}, fmt.Errorf("planned trip: %w", domain.ErrNotFound)
	}
	return trip, nil
}

// Share mails the stored itinerary as plain text.
func (s *TripService) Share(ctx context.Context, to string) error {
	if s.mailer == nil {
		return domain.ErrMissingCredential
	}
	trip, err := s.Current(ctx)
	if err != nil {
		return err
	}
	msg := domain.Message{To: strings.TrimSpace(to), Subject: "Your accessible trip itinerary", Body: FormatItinerary(trip)}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("share trip: %w", err)
	}
	log.Info().Int("stops", len(trip.Stops)).Msg("itinerary shared")
	return nil
}

// CalendarStop is a stop with its night count.
type CalendarStop struct {
	domain.TripStop
	Nights int `json:"nights"`
}

// CalendarDay lists the places a traveller is at on one date; a changeover
// day names both stops.
type CalendarDay struct {
	Date   domain.Date `json:"date"`
	Places []string    `json:"places"`
}

type TripCalendar struct {
	Start       domain.Date    `json:"start"`
	End         domain.Date    `json:"end"`
	TotalNights int            `json:"totalNights"`
	Stops       []CalendarStop `json:"stops"`
	Days        []CalendarDay  `json:"days"`
}

const maxCalendarDays = 731

// Calendar lays the trip out day by day in start-date order. Stops missing a
// date are left out.
func Calendar(trip domain.PlannedTrip) TripCalendar {
	var cal TripCalendar
	var dated []domain.TripStop
	for _, st := range sortedByStart(trip.Stops) {
		if st.StartDate.IsZero() || st.EndDate.IsZero() {
			continue
		}
		dated = append(dated, st)
		n := st.Nights()
		cal.Stops = append(cal.Stops, CalendarStop{TripStop: st, Nights: n})
		cal.TotalNights += n
		if cal.Start.IsZero() || st.StartDate.Before(cal.Start.Time) {
			cal.Start = st.StartDate
		}
		if st.EndDate.After(cal.End.Time) {
			cal.End = st.EndDate
		}
	}
	if len(dated) == 0 {
		return cal
	}
	for d, i := cal.Start, 0; !d.After(cal.End.Time) && i < maxCalendarDays; d, i = d.AddDays(1), i+1 {
		day := CalendarDay{Date: d, Places: []string{}}
		for _, st := range dated {
			if !d.Before(st.StartDate.Time) && !d.After(st.EndDate.Time) {
				day.Places = append(day.Places, st.Label())
			}
		}
		cal.Days = append(cal.Days, day)
	}
	return cal
}

// FormatItinerary renders the trip as plain text for e-mail.
func FormatItinerary(trip domain.PlannedTrip) string {
	cal := Calendar(trip)
	var b strings.Builder
	fmt.Fprintf(&b, "Planned trip: %d stops, %d nights\n", len(cal.Stops), cal.TotalNights)
	if !cal.Start.IsZero() {
		fmt.Fprintf(&b, "%s to %s\n", cal.Start, cal.End)
	}
	b.WriteString("\n")
	for i, st := range cal.Stops {
		fmt.Fprintf(&b, "%d. %s: %s to %s (%s)\n", i+1, st.Label(), st.StartDate, st.EndDate, plural(st.Nights, "night"))
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
