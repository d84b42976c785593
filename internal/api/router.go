package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ytframes/internal/logging"
	"ytframes/internal/metrics"
	"ytframes/internal/workflow"
)

// Options configures NewRouter.
type Options struct {
	Pipeline *workflow.Pipeline
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	// Token, when set, guards every /api route with bearer auth.
	Token string
	// RunContext parents the background runs started by POST /api/sessions.
	// Request contexts end with the response, so runs must not use them.
	RunContext context.Context
	// Status, when set, serves GET /api/status.
	Status func(ctx context.Context) DaemonStatus
}

type server struct {
	pipeline *workflow.Pipeline
	logger   *slog.Logger
	runCtx   context.Context
	status   func(ctx context.Context) DaemonStatus
}

// NewRouter builds the HTTP handler for the session API.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "api")
	runCtx := opts.RunContext
	if runCtx == nil {
		runCtx = context.Background()
	}
	s := &server{
		pipeline: opts.Pipeline,
		logger:   logger,
		runCtx:   runCtx,
		status:   opts.Status,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(opts.Token))
		r.Get("/status", s.handleStatus)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleStart)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleDescribe)
				r.Delete("/", s.handleDelete)
				r.Get("/candidates", s.handleCandidates)
				r.Get("/candidates/{index}/thumbnail", s.handleThumbnail)
				r.Post("/candidates/{index}/toggle", s.handleToggle)
				r.Post("/select-all", s.handleSelectAll)
				r.Post("/clear", s.handleClear)
				r.Post("/export", s.handleExport)
				r.Get("/archive", s.handleArchive)
			})
		})
	})
	return r
}
