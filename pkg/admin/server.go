// Package admin serves the uwbd admin HTTP API: the live accessory table,
// settings, the journal, aliases and Prometheus metrics. Hosts without a
// radio state feed report adapter and location changes through it.
package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Krajiyah/uwb-sdk/pkg/alias"
	"github.com/Krajiyah/uwb-sdk/pkg/journal"
	"github.com/Krajiyah/uwb-sdk/pkg/metrics"
	"github.com/Krajiyah/uwb-sdk/pkg/models"
	"github.com/Krajiyah/uwb-sdk/pkg/orchestrator"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

// Orchestrator is what the API reads and tunes
type Orchestrator interface {
	Snapshot() orchestrator.Snapshot
	Settings() orchestrator.Settings
	UpdateSettings(orchestrator.Settings) error
	NotifyLocationState(enabled bool)
}

// Adapter receives Bluetooth adapter state changes
type Adapter interface {
	NotifyAdapterState(code int)
}

// Server is the admin HTTP API
type Server struct {
	addr    string
	orch    Orchestrator
	adapter Adapter
	journal *journal.Journal
	aliases *alias.Store
	metrics *metrics.Metrics
	log     zerolog.Logger
	router  chi.Router
}

// New builds the router. adapter, journal, aliases and metrics may be nil; their routes then answer 404.
func New(addr string, orch Orchestrator, adapter Adapter, j *journal.Journal, aliases *alias.Store, m *metrics.Metrics, log zerolog.Logger) *Server {
	s := &Server{addr: addr, orch: orch, adapter: adapter, journal: j, aliases: aliases, metrics: m, log: log}
	s.routes()
	return s
}

// Handler returns the router with logging and recovery applied
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		s.log.Debug().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http")
	})(h)
	h = hlog.NewHandler(s.log)(h)
	h = chimw.RequestID(h)
	h = chimw.RealIP(h)
	return chimw.Recoverer(h)
}

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", s.addr).Msg("admin listening")

	select {
	case err := <-errc:
		return errors.Wrap(err, "admin listen")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	return errors.Wrap(srv.Shutdown(shutdownCtx), "admin shutdown")
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accessories", s.handleAccessories)
		r.Get("/accessories/{mac}", s.handleAccessory)
		r.Get("/settings", s.handleSettings)
		r.Put("/settings", s.handleUpdateSettings)
		r.Put("/location", s.handleLocation)
		if s.adapter != nil {
			r.Put("/adapter", s.handleAdapter)
		}
		if s.journal != nil {
			r.Route("/journal", func(r chi.Router) {
				r.Get("/", s.handleJournal)
				r.Delete("/", s.handleClearJournal)
				r.Get("/export", s.handleExportJournal)
			})
		}
		if s.aliases != nil {
			r.Route("/aliases", func(r chi.Router) {
				r.Get("/", s.handleAliases)
				r.Put("/{mac}", s.handleSetAlias)
				r.Delete("/{mac}", s.handleDeleteAlias)
			})
		}
	})
	s.router = r
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorResponse(w http.ResponseWriter, status int, err error) {
	type e struct {
		Error string `json:"error"`
	}
	jsonResponse(w, status, e{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "running": s.orch.Snapshot().Running})
}

func (s *Server) handleAccessories(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleAccessory(w http.ResponseWriter, r *http.Request) {
	a, ok := s.orch.Snapshot().Find(chi.URLParam(r, "mac"))
	if !ok {
		errorResponse(w, http.StatusNotFound, errors.New("accessory not found"))
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.orch.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings := s.orch.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		errorResponse(w, http.StatusBadRequest, errors.Wrap(err, "decode settings"))
		return
	}
	if err := s.orch.UpdateSettings(settings); err != nil {
		errorResponse(w, http.StatusUnprocessableEntity, err)
		return
	}
	jsonResponse(w, http.StatusOK, s.orch.Settings())
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		errorResponse(w, http.StatusBadRequest, errors.New(`body must be {"enabled": bool}`))
		return
	}
	s.orch.NotifyLocationState(*body.Enabled)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAdapter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		On *bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.On == nil {
		errorResponse(w, http.StatusBadRequest, errors.New(`body must be {"on": bool}`))
		return
	}
	code := models.AdapterOff
	if *body.On {
		code = models.AdapterOn
	}
	s.adapter.NotifyAdapterState(code)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		if n, err = strconv.Atoi(v); err != nil || n < 0 {
			errorResponse(w, http.StatusBadRequest, errors.New("n must be a non-negative integer"))
			return
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"header": journal.Header, "rows": s.journal.Read(n)})
}

func (s *Server) handleClearJournal(w http.ResponseWriter, r *http.Request) {
	if err := s.journal.Clear(); err != nil {
		errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportJournal(w http.ResponseWriter, r *http.Request) {
	format := journal.Txt
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := journal.ParseFormat(v)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, err)
			return
		}
		format = f
	}
	contentType := "text/plain; charset=utf-8"
	if format == journal.CSV {
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.journal.FileName(format)+`"`)
	if err := s.journal.Export(w, format); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("journal export failed")
	}
}

func (s *Server) handleAliases(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.aliases.All())
}

func (s *Server) handleSetAlias(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Alias string `json:"alias"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errorResponse(w, http.StatusBadRequest, errors.Wrap(err, "decode alias"))
		return
	}
	if err := s.aliases.Set(chi.URLParam(r, "mac"), body.Alias); err != nil {
		errorResponse(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAlias(w http.ResponseWriter, r *http.Request) {
	if !s.aliases.Remove(chi.URLParam(r, "mac")) {
		errorResponse(w, http.StatusNotFound, errors.New("alias not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
