package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// hotel cache / external services
	ErrMissingCredential = errors.New("missing API credential")
	ErrUpstream          = errors.New("upstream service error")
	ErrParse             = errors.New("could not interpret upstream response")

	// trip planner
	ErrIncompleteItinerary = errors.New("incomplete itinerary")
	ErrDateConflict        = errors.New("date conflict")

	// overlays
	ErrInvalidInput = errors.New("invalid input")
)

// UpstreamError carries the failing service and cause; it matches ErrUpstream.
type UpstreamError struct {
	Service string
	Status  int // 0 when the service was unreachable
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// IncompleteItineraryError names the first stop missing a date.
type IncompleteItineraryError struct {
	Index   int
	Stop    TripStop
	Missing string // "startDate" or "endDate"
}

func (e *IncompleteItineraryError) Error() string {
	return fmt.Sprintf("incomplete itinerary: stop %d (%s) has no %s", e.Index, e.Stop.Label(), e.Missing)
}

func (e *IncompleteItineraryError) Unwrap() error { return ErrIncompleteItinerary }

// DateConflictError names the first overlapping pair in start-date order.
type DateConflictError struct {
	Current TripStop
	Next    TripStop
}

func (e *DateConflictError) Error() string {
	return fmt.Sprintf("date conflict: %s ends %s after %s starts %s",
		e.Current.Label(), e.Current.EndDate, e.Next.Label(), e.Next.StartDate)
}

func (e *DateConflictError) Unwrap() error { return ErrDateConflict }
