// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes searches and location suggestions over HTTP.
//
// Routes:
//
//	GET /api/v1/health
//	GET /api/v1/studies?condition=...&format=json|csv|xlsx|raw-json|sqlite
//	GET /api/v1/locations?q=...
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/trial-finder/internal/logging"
	"github.com/pdiddy/trial-finder/internal/trials"
	"github.com/pdiddy/trial-finder/pkg/types"
)

const defaultRequestTimeout = 2 * time.Minute

// Searcher runs one search. *trials.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, c types.Criteria, opts trials.Options) (*trials.Result, error)
}

// Server routes API requests to a searcher and an optional geocoder.
type Server struct {
	searcher Searcher
	geocoder trials.Suggester
	logger   *logrus.Logger
	timeout  time.Duration
	router   *chi.Mux
}

// New returns a server. geocoder may be nil, in which case location
// suggestions answer 503.
func New(searcher Searcher, geocoder trials.Suggester, cfg types.ServerConfig, logger *logrus.Logger) *Server {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	s := &Server{
		searcher: searcher,
		geocoder: geocoder,
		logger:   logging.OrDiscard(logger),
		timeout:  timeout,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/studies", s.handleStudies)
		r.Get("/locations", s.handleLocations)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs one line per request through logrus.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"elapsed":    time.Since(start).Round(time.Millisecond).String(),
			}).Info("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"geocoding": s.geocoder != nil,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// respondNoData hides the cause of a failed or empty search behind the
// single user-facing message.
func respondNoData(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, trials.NoDataMessage, nil)
}
