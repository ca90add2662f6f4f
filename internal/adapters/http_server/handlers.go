package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"accessible_travel/internal/app"
	"accessible_travel/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Catalog      domain.Catalog
	Hotels       *app.HotelService
	Trips        *app.TripService
	Overlays     *app.OverlayService
	Feedback     *app.FeedbackService
	FeedbackURLs []string
}

type problem struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Stops  []domain.TripStop `json:"stops,omitempty"` // offending stops for itinerary errors
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/destinations", h.listDestinations)
		r.Get("/destinations/{id}", h.getDestination)
		r.Get("/destinations/{id}/tips", h.getTips)
		r.Post("/destinations/{id}/tips", h.addTip)
		r.Get("/destinations/{id}/experiences", h.listExperiences)
		r.Post("/destinations/{id}/experiences", h.addExperience)

		r.Get("/hotels/{city}", h.getHotels)
		r.Get("/hotels/{city}/cached", h.getCachedHotels)

		r.Post("/trip/validate", h.validateTrip)
		r.Get("/trip", h.getTrip)
		r.Put("/trip", h.saveTrip)
		r.Delete("/trip", h.clearTrip)
		r.Get("/trip/calendar", h.tripCalendar)
		r.Get("/trip/export.xlsx", h.exportTrip)
		r.Post("/trip/share", h.shareTrip)

		r.Get("/feedback", h.listFeedback)
		r.Post("/feedback/collect", h.collectFeedback)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string, stops ...domain.TripStop) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	p := problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Stops: stops}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		incomplete *domain.IncompleteItineraryError
		conflict   *domain.DateConflictError
	)
	switch {
	case errors.As(err, &incomplete):
		writeProblem(w, http.StatusUnprocessableEntity, "Incomplete Itinerary", err.Error(), incomplete.Stop)
	case errors.As(err, &conflict):
		writeProblem(w, http.StatusUnprocessableEntity, "Date Conflict", err.Error(), conflict.Current, conflict.Next)
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.Is(err, domain.ErrMissingCredential):
		writeProblem(w, http.StatusServiceUnavailable, "Service Not Configured", err.Error())
	case errors.Is(err, domain.ErrUpstream):
		writeProblem(w, http.StatusBadGateway, "Upstream Error", err.Error())
	case errors.Is(err, domain.ErrParse):
		writeProblem(w, http.StatusBadGateway, "Unreadable Upstream Response", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "request timed out")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this body
		writeProblem(w, 499, "Client Closed Request", "")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeRead sends a GET payload with a weak ETag, answering 304 on a match.
func writeRead(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeValue(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	writeJSON(w, status, body)
}

// decodeBody reads a JSON request body; an empty body is allowed when optional.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, fmt.Errorf("%w: id must be a number", domain.ErrInvalidInput)
	}
	return id, nil
}

/********** destinations **********/

type destinationItem struct {
	domain.Summary
	Kind   domain.Kind `json:"kind"`
	Cities int         `json:"cities,omitempty"`
}

type destinationView struct {
	Kind        domain.Kind        `json:"kind"`
	Destination domain.Destination `json:"destination"`
}

func (h *Handlers) listDestinations(w http.ResponseWriter, r *http.Request) {
	all := h.Catalog.All()
	out := make([]destinationItem, 0, len(all))
	for _, d := range all {
		it := destinationItem{Summary: d.Info(), Kind: d.Kind()}
		if c, ok := d.(*domain.Category); ok {
			it.Cities = len(c.Cities)
		}
		out = append(out, it)
	}
	writeRead(w, r, out)
}

func (h *Handlers) getDestination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Catalog.Find(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, destinationView{Kind: d.Kind(), Destination: d})
}

/********** overlays **********/

func (h *Handlers) getTips(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.Overlays.Tips(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, view)
}

func (h *Handlers) addTip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in domain.UserTip
	if err := decodeBody(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	tip, err := h.Overlays.AddTip(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeValue(w, http.StatusCreated, tip)
}

func (h *Handlers) listExperiences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.Overlays.Experiences(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, list)
}

func (h *Handlers) addExperience(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in domain.TravelerExperience
	if err := decodeBody(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	exp, err := h.Overlays.AddExperience(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeValue(w, http.StatusCreated, exp)
}

/********** feedback **********/

func (h *Handlers) listFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.Feedback.FeedbackFor(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, list)
}

type collectRequest struct {
	URLs []string `json:"urls"`
}

func (h *Handlers) collectFeedback(w http.ResponseWriter, r *http.Request) {
	var in collectRequest
	if err := decodeBody(w, r, &in, true); err != nil {
		writeError(w, r, err)
		return
	}
	urls := in.URLs
	if len(urls) == 0 {
		urls = h.FeedbackURLs
	}
	if len(urls) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Input", "no feedback pages configured or given")
		return
	}
	rep, err := h.Feedback.Collect(r.Context(), urls)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeValue(w, http.StatusOK, rep)
}
