package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"eventdetail/internal/ics"
	"eventdetail/internal/link"
	appLog "eventdetail/internal/log"
	"eventdetail/internal/model"
	"eventdetail/internal/store"
	"eventdetail/internal/visual"
)

// eventSummary is one entry of GET /api/events.
type eventSummary struct {
	Index       int               `json:"index"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Date        string            `json:"date"`
	EntranceFee string            `json:"entrance_fee"`
	Location    model.Coordinates `json:"location"`
	ImageURL    string            `json:"image_url"`
}

type eventsResponse struct {
	Count  int            `json:"count"`
	Events []eventSummary `json:"events"`
}

type eventResponse struct {
	Index    int               `json:"index"`
	Event    model.Event       `json:"event"`
	Links    []link.Affordance `json:"links"`
	Upcoming []ics.Occurrence  `json:"upcoming"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	all := s.events.All()
	resp := eventsResponse{Count: len(all), Events: make([]eventSummary, 0, len(all))}
	for i, ev := range all {
		resp.Events = append(resp.Events, eventSummary{
			Index:       i,
			Name:        ev.Name,
			Category:    ev.Category,
			Date:        ev.Date,
			EntranceFee: ev.EntranceFee,
			Location:    ev.Location,
			ImageURL:    ev.ImageURL,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// eventFromPath resolves {index}. On failure it has already written the
// error response.
func (s *Server) eventFromPath(w http.ResponseWriter, r *http.Request) (int, model.Event, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid event index %q", raw))
		return 0, model.Event{}, false
	}
	ev, err := s.events.Get(index)
	if err != nil {
		if errors.Is(err, store.ErrOutOfRange) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load event")
		}
		return 0, model.Event{}, false
	}
	return index, ev, true
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	index, ev, ok := s.eventFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{
		Index:    index,
		Event:    ev,
		Links:    s.affordances(ev),
		Upcoming: s.upcoming(ev),
	})
}

func (s *Server) handleEventLinks(w http.ResponseWriter, r *http.Request) {
	_, ev, ok := s.eventFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.affordances(ev))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	index, ev, ok := s.eventFromPath(w, r)
	if !ok {
		return
	}

	var site string
	if u, err := s.resolver.Resolve(ev.Link); err == nil {
		site = u.String()
	}

	body, err := ics.Export(ev, ics.ExportOptions{URL: site, Stamp: s.now()})
	if err != nil {
		if errors.Is(err, ics.ErrNoSchedule) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		appLog.Error("calendar export failed", err, "index", index)
		writeError(w, http.StatusInternalServerError, "failed to export event")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%d.ics"`, index))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleVisual derives the visual state for ?scroll=&mode= without any
// server-side screen.
func (s *Server) handleVisual(w http.ResponseWriter, r *http.Request) {
	scroll, mode, err := parseFrame(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, visual.Derive(scroll, mode))
}

// parseFrame reads scroll and mode query parameters. Missing values mean
// offset 0 and detail mode.
func parseFrame(r *http.Request) (float64, visual.Mode, error) {
	q := r.URL.Query()

	scroll := 0.0
	if raw := q.Get("scroll"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid scroll %q", raw)
		}
		scroll = v
	}
	if err := checkFinite(scroll); err != nil {
		return 0, 0, err
	}

	mode, err := visual.ParseMode(q.Get("mode"))
	if err != nil {
		return 0, 0, err
	}
	return scroll, mode, nil
}

func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("scroll offset must be finite, got %v", v)
	}
	return nil
}

func (s *Server) affordances(ev model.Event) []link.Affordance {
	links := s.resolver.Affordances(ev)
	for _, a := range links {
		s.metrics.LinkResolved(string(a.Kind), a.Enabled)
	}
	return links
}

func (s *Server) upcoming(ev model.Event) []ics.Occurrence {
	occ, err := ics.Upcoming(ev.Schedule, s.now(), s.cfg.UpcomingCount)
	if err != nil {
		return nil
	}
	for i := range occ {
		occ[i].Start = occ[i].Start.In(s.loc)
		occ[i].End = occ[i].End.In(s.loc)
	}
	return occ
}
