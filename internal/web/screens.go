package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventdetail/internal/screen"
	"eventdetail/internal/store"
)

type createScreenRequest struct {
	Index int `json:"index"`
}

type scrollRequest struct {
	Offset *float64 `json:"offset"`
}

type screenResponse struct {
	ID string `json:"id"`
	screen.Snapshot
}

func (s *Server) handleCreateScreen(w http.ResponseWriter, r *http.Request) {
	var req createScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := s.events.Get(req.Index); err != nil {
		if errors.Is(err, store.ErrOutOfRange) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load event")
		return
	}

	id, sc := s.screens.Create(req.Index)
	s.metrics.SetScreens(s.screens.Len())
	writeJSON(w, http.StatusCreated, screenResponse{ID: id, Snapshot: sc.Snapshot()})
}

// screenFromPath resolves {id}; on failure the 404 is already written.
func (s *Server) screenFromPath(w http.ResponseWriter, r *http.Request) (string, *screen.Screen, bool) {
	id := chi.URLParam(r, "id")
	sc, err := s.screens.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", nil, false
	}
	return id, sc, true
}

func (s *Server) handleGetScreen(w http.ResponseWriter, r *http.Request) {
	id, sc, ok := s.screenFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{ID: id, Snapshot: sc.Snapshot()})
}

func (s *Server) handleDeleteScreen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.screens.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.metrics.SetScreens(s.screens.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateMap(w http.ResponseWriter, r *http.Request) {
	id, sc, ok := s.screenFromPath(w, r)
	if !ok {
		return
	}
	sc.ActivateMap()
	writeJSON(w, http.StatusOK, screenResponse{ID: id, Snapshot: sc.Snapshot()})
}

func (s *Server) handleDeactivateMap(w http.ResponseWriter, r *http.Request) {
	id, sc, ok := s.screenFromPath(w, r)
	if !ok {
		return
	}
	sc.DeactivateMap()
	writeJSON(w, http.StatusOK, screenResponse{ID: id, Snapshot: sc.Snapshot()})
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	id, sc, ok := s.screenFromPath(w, r)
	if !ok {
		return
	}

	var req scrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Offset == nil {
		writeError(w, http.StatusBadRequest, `body must be {"offset": <number>}`)
		return
	}
	if err := checkFinite(*req.Offset); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sc.SetScrollOffset(*req.Offset)
	writeJSON(w, http.StatusOK, screenResponse{ID: id, Snapshot: sc.Snapshot()})
}
