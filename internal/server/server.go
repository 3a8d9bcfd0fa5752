// Package server exposes an analyzer session over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/analyzer"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/candidates"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/logging"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/metrics"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/ratelimit"
)

// maxUploadBytes bounds roster uploads.
const maxUploadBytes = 32 << 20

// Options configures a Server.
type Options struct {
	// Candidates is the candidate search client. Nil disables those routes.
	Candidates *candidates.Client

	// RateLimiter reports credential cooldowns. May be nil.
	RateLimiter *ratelimit.Tracker

	// Registerer receives the HTTP metrics. Nil skips them.
	Registerer prometheus.Registerer

	// BaseContext is the parent of background runs. Defaults to
	// context.Background.
	BaseContext context.Context
}

// Server serves one analyzer session.
type Server struct {
	session    *analyzer.Session
	candidates *candidates.Client
	limiter    *ratelimit.Tracker
	baseCtx    context.Context
	logger     zerolog.Logger
	router     chi.Router
}

// New creates a server for session.
func New(session *analyzer.Session, opts Options) *Server {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	s := &Server{
		session:    session,
		candidates: opts.Candidates,
		limiter:    opts.RateLimiter,
		baseCtx:    opts.BaseContext,
		logger:     logging.NewLogger("server"),
	}
	s.router = s.routes(opts.Registerer)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(reg prometheus.Registerer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	if reg != nil {
		m := metrics.NewMiddleware("placement-analyzer")
		m.MustRegister(reg)
		r.Use(m.Handler)
	}

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/credentials", s.listCredentials)
		r.Put("/credentials", s.replaceCredentials)
		r.Post("/credentials", s.addCredential)
		r.Delete("/credentials/{index}", s.removeCredential)

		r.Post("/analyze", s.analyze)
		r.Post("/resume", s.resume)
		r.Get("/progress", s.progress)
		r.Get("/results", s.results)
		r.Get("/stats", s.stats)

		r.Post("/report", s.generateReport)
		r.Get("/report", s.getReport)
		r.Get("/report.html", s.getReportHTML)

		r.Get("/export/results.csv", s.exportResultsCSV)
		r.Get("/export/stats.csv", s.exportStatsCSV)
		r.Get("/export/stats.xlsx", s.exportStatsXLSX)

		r.Get("/candidates/lists", s.candidateLists)
		r.Get("/candidates/lists/{id}", s.candidateList)
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status_code", ww.Status()).
			Int("size", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
