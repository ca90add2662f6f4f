package httpserver

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"accessible_travel/internal/app"
	"accessible_travel/internal/domain"
)

/********** hotels **********/

func cityParam(r *http.Request) string {
	raw := chi.URLParam(r, "city")
	if c, err := url.PathUnescape(raw); err == nil {
		return c
	}
	return raw
}

func (h *Handlers) getHotels(w http.ResponseWriter, r *http.Request) {
	city := cityParam(r)
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	var (
		e   domain.HotelCacheEntry
		err error
	)
	if refresh {
		e, err = h.Hotels.Refresh(r.Context(), city)
	} else {
		e, err = h.Hotels.Fetch(r.Context(), city)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, e)
}

func (h *Handlers) getCachedHotels(w http.ResponseWriter, r *http.Request) {
	city := cityParam(r)
	e, ok, err := h.Hotels.GetCached(r.Context(), city)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no fresh hotel list cached for "+city)
		return
	}
	writeRead(w, r, e)
}

/********** trip **********/

type validation struct {
	Valid bool              `json:"valid"`
	Stops []domain.TripStop `json:"destinations"`
}

func (h *Handlers) validateTrip(w http.ResponseWriter, r *http.Request) {
	var in domain.PlannedTrip
	if err := decodeBody(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	stops := in.Stops
	// names make the conflict readable; unknown ids are still validated by date
	if resolved, err := h.Trips.Resolve(stops); err == nil {
		stops = resolved
	}
	if err := app.ValidateItinerary(stops); err != nil {
		writeError(w, r, err)
		return
	}
	writeValue(w, http.StatusOK, validation{Valid: true, Stops: stops})
}

func (h *Handlers) getTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Trips.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, trip)
}

func (h *Handlers) saveTrip(w http.ResponseWriter, r *http.Request) {
	var in domain.PlannedTrip
	if err := decodeBody(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := h.Trips.Save(r.Context(), in.Stops)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeValue(w, http.StatusOK, trip)
}

func (h *Handlers) clearTrip(w http.ResponseWriter, r *http.Request) {
	if err := h.Trips.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) tripCalendar(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Trips.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeRead(w, r, app.Calendar(trip))
		return
	}
	var buf bytes.Buffer
	if err := app.RenderCalendar(&buf, trip); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) exportTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Trips.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := app.ExportXLSX(&buf, trip); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="trip.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type shareRequest struct {
	To string `json:"to"`
}

func (h *Handlers) shareTrip(w http.ResponseWriter, r *http.Request) {
	var in shareRequest
	if err := decodeBody(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Trips.Share(r.Context(), in.To); err != nil {
		writeError(w, r, err)
		return
	}
	writeValue(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
