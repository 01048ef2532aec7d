package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"zandaka/internal/core"
	applog "zandaka/internal/log"
	"zandaka/internal/middleware/ratelimit"
	"zandaka/internal/middleware/security"
	"zandaka/internal/middleware/trace"
	"zandaka/internal/services"
)

// Ledger is the write side of the API.
type Ledger interface {
	State(ctx context.Context) (core.State, error)
	Entries(ctx context.Context) ([]core.Entry, error)
	UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error)
	CreateEntry(ctx context.Context, p core.EntryParams) (core.Entry, error)
	UpdateEntry(ctx context.Context, id string, patch core.EntryPatch) (core.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	ClearEntries(ctx context.Context, confirmed bool) (int, error)
	Reorder(ctx context.Context, ids []string) ([]core.Entry, error)
}

// Projections is the read model of the API.
type Projections interface {
	Compute(ctx context.Context) (services.Report, error)
	Holidays(year int) []core.Date
}

var (
	_ Ledger      = (*services.LedgerService)(nil)
	_ Projections = (*services.ProjectionService)(nil)
)

// Options tunes the server; zero values pick defaults.
type Options struct {
	RateLimitPerMinute int
	TrustProxy         bool
	Logger             *applog.Logger
	// Today fixes the clock for export names and default years.
	Today func() core.Date
}

type Server struct {
	http.Server
	ledger      Ledger
	projections Projections
	limiter     *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	logger      *applog.Logger
	events      *applog.StructuredLogger
	today       func() core.Date
}

const maxBodyBytes = 1 << 20

// NewServer wires the routes and the middleware chain. Call Shutdown to
// release the rate limiter.
func NewServer(addr string, ledger Ledger, projections Projections, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	today := opts.Today
	if today == nil {
		today = core.Today
	}
	structured := applog.NewStructuredLogger(logger)
	detector := security.NewDetector(opts.TrustProxy)

	s := &Server{
		ledger:      ledger,
		projections: projections,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:    detector,
		tracer:      trace.NewMiddleware(detector.ExtractClientIP, structured),
		logger:      logger,
		events:      structured,
		today:       today,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("DELETE /api/entries", s.handleClearEntries)
	mux.HandleFunc("POST /api/entries/reorder", s.handleReorder)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)

	mux.HandleFunc("GET /api/projection", s.handleProjection)
	mux.HandleFunc("GET /api/holidays", s.handleHolidays)
	mux.HandleFunc("GET /api/export", s.handleExport)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimit)(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	h = applog.Middleware(logger)(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background work and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the state can be loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.ledger.State(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
