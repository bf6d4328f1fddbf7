package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docoutline.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        *stats.BuildStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		stats:        orch.Stats(),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/outline", s.handleOutline)

		r.Post("/api/jobs", s.handleSubmit)
		r.Post("/api/jobs/batch", s.handleBatchSubmit)
		r.Get("/api/jobs/{jobID}/status", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/result", s.handleJobResult)
		r.Get("/api/jobs/{jobID}/document", s.handleJobDocument)

		r.Get("/api/stats/build", s.handleBuildStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
