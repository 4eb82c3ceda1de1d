package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"eventdetail/internal/config"
	"eventdetail/internal/link"
	appLog "eventdetail/internal/log"
	"eventdetail/internal/metrics"
	"eventdetail/internal/render"
	"eventdetail/internal/screen"
	"eventdetail/internal/store"
)

// Server exposes the event detail core over HTTP: the event store, the
// visual-state derivation, viewer screens, link affordances, ICS export and
// the rendered screen itself.
type Server struct {
	cfg      *config.Config
	events   *store.Store
	screens  *screen.Registry
	resolver link.Resolver
	renderer *render.Renderer
	metrics  *metrics.Metrics
	loc      *time.Location
	now      func() time.Time
	router   chi.Router
}

// NewServer wires a Server. screens and m may be shared with the
// scheduler.
func NewServer(cfg *config.Config, events *store.Store, screens *screen.Registry, m *metrics.Metrics) (*Server, error) {
	r, err := render.New()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		events:   events,
		screens:  screens,
		resolver: link.Resolver{AllowedSchemes: cfg.Links.AllowedSchemes},
		renderer: r,
		metrics:  m,
		loc:      resolveLocationOrLocal(cfg.Timezone),
		now:      time.Now,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		r.Use(s.basicAuthMiddleware)
	}

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleListEvents)
		r.Route("/events/{index}", func(r chi.Router) {
			r.Get("/", s.handleGetEvent)
			r.Get("/links", s.handleEventLinks)
			r.Get("/calendar.ics", s.handleCalendar)
		})
		r.Get("/visual", s.handleVisual)

		r.Post("/screens", s.handleCreateScreen)
		r.Route("/screens/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetScreen)
			r.Delete("/", s.handleDeleteScreen)
			r.Post("/map", s.handleActivateMap)
			r.Post("/detail", s.handleDeactivateMap)
			r.Put("/scroll", s.handleScroll)
		})
	})

	r.Get("/events/{index}", s.handleRenderEvent)
	r.Get("/preview/{index}.png", s.handlePreview)
	r.Get("/assets/*", s.handleAsset)

	return r
}

// StartServer serves s on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
