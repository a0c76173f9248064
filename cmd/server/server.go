package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/meshquote/internal/config"
	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/mesh"
	"github.com/Simplici0/meshquote/internal/pipeline"
	"github.com/Simplici0/meshquote/internal/quotes"
)

type server struct {
	logger         *log.Logger
	db             *sql.DB
	quotes         *quotes.Store
	pipeline       pipeline.Pipeline
	defaults       estimate.PrintConfig
	maxUploadBytes int64
}

func newServer(cfg config.Config, database *sql.DB, logger *log.Logger) *server {
	return &server{
		logger: logger,
		db:     database,
		quotes: quotes.NewStore(database),
		pipeline: pipeline.Pipeline{
			Limits:  mesh.Limits{MaxTriangles: cfg.MaxTriangles},
			Timeout: cfg.EstimateTimeout.Duration,
		},
		defaults:       cfg.Print,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/price", s.handlePrice)
		r.Post("/estimate", s.handleEstimate)
		r.Get("/catalog", s.handleCatalog)
		r.Post("/quotes", s.handleQuoteCreate)
		r.Get("/quotes", s.handleQuotesList)
		r.Get("/quotes/{id}", s.handleQuoteGet)
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "err", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
