package web

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"eventdetail/internal/capture"
	appLog "eventdetail/internal/log"
	"eventdetail/internal/render"
	"eventdetail/internal/visual"
)

// handleRenderEvent renders the detail screen.
//
// GET /events/{index}?scroll=120&mode=map&theme=light
// GET /events/{index}?screen=<id>
//   - screen: take mode and scroll from a viewer screen instead of the query
//   - theme:  overrides the configured default
func (s *Server) handleRenderEvent(w http.ResponseWriter, r *http.Request) {
	index, ev, ok := s.eventFromPath(w, r)
	if !ok {
		return
	}

	var state visual.State
	if id := r.URL.Query().Get("screen"); id != "" {
		sc, err := s.screens.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if sc.Index() != index {
			writeError(w, http.StatusConflict, fmt.Sprintf("screen %s shows event %d", id, sc.Index()))
			return
		}
		state = sc.Snapshot().Visual
	} else {
		scroll, mode, err := parseFrame(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		state = visual.Derive(scroll, mode)
	}

	page := render.Page{
		Index:    index,
		Event:    ev,
		State:    state,
		Theme:    render.ParseTheme(r.URL.Query().Get("theme"), render.Theme(s.cfg.Theme)),
		Links:    s.affordances(ev),
		Upcoming: s.upcoming(ev),
	}
	if ev.Schedule != nil {
		page.CalendarURL = "/api/events/" + strconv.Itoa(index) + "/calendar.ics"
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page); err != nil {
		appLog.Error("render failed", err, "index", index)
		writeError(w, http.StatusInternalServerError, "failed to render event")
		return
	}
	s.metrics.Rendered(state.Mode.String())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handlePreview serves the last captured PNG of an event from the capture
// output directory.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	index, _, ok := s.eventFromPath(w, r)
	if !ok {
		return
	}
	// http.ServeFile answers 404 for a missing capture.
	http.ServeFile(w, r, capture.PreviewPath(s.cfg.Capture.OutputDir, index))
}

// handleAsset serves event and host images from cfg.AssetsDir. Directory
// listings are not exposed.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || strings.HasSuffix(name, "/") {
		http.NotFound(w, r)
		return
	}
	// http.Dir rejects ".." and confines name to AssetsDir.
	f, err := http.Dir(s.cfg.AssetsDir).Open(path.Clean("/" + name))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
