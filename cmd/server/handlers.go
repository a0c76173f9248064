package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/mesh"
	"github.com/Simplici0/meshquote/internal/pricing"
	"github.com/Simplici0/meshquote/internal/quotes"
	"github.com/Simplici0/meshquote/internal/seed"
)

const (
	maxPriceBodyBytes = 1 << 20
	multipartMemory   = 32 << 20
)

type priceRequest struct {
	PrintTimeMinutes   float64 `json:"printTimeMinutes"`
	MaterialUsageGrams float64 `json:"materialUsageGrams"`
	Material           string  `json:"material"`
	QualityPreset      string  `json:"qualityPreset"`
}

type estimateResponse struct {
	FileName string                 `json:"fileName"`
	Mesh     mesh.Summary           `json:"mesh"`
	Config   estimate.PrintConfig   `json:"config"`
	Material pricing.Material       `json:"material"`
	Estimate estimate.PrintEstimate `json:"estimate"`
	Price    pricing.Result         `json:"price"`
	Warnings []string               `json:"warnings,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "err", err)
		s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var body priceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPriceBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.logger.Warn("decode price request", "err", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, fallbacks := pricing.NewRequest(body.PrintTimeMinutes, body.MaterialUsageGrams, body.Material, body.QualityPreset)
	s.logFallbacks(fallbacks)

	result := pricing.Calculate(req)
	if math.IsNaN(result.Price) || math.IsInf(result.Price, 0) {
		s.logger.Error("price calculation produced a non-finite value", "request", body, "breakdown", result.Breakdown)
		s.writeError(w, http.StatusInternalServerError, "Failed to calculate price")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	resp, _, ok := s.estimateUpload(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	resp, notes, ok := s.estimateUpload(w, r)
	if !ok {
		return
	}

	quote, err := s.quotes.Save(r.Context(), quotes.Quote{
		FileName:      resp.FileName,
		Notes:         notes,
		Material:      resp.Material,
		QualityPreset: resp.Config.QualityPreset,
		Price:         resp.Price.Price,
		Currency:      resp.Price.Currency,
		Config:        resp.Config,
		Mesh:          resp.Mesh,
		Estimate:      resp.Estimate,
		Breakdown:     resp.Price.Breakdown,
	})
	if err != nil {
		s.logger.Error("save quote", "err", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to save quote")
		return
	}

	s.writeJSON(w, http.StatusCreated, quote)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.quotes.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("list quotes", "err", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load quotes")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	quote, err := s.quotes.Get(r.Context(), id)
	if errors.Is(err, quotes.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Quote not found")
		return
	}
	if err != nil {
		s.logger.Error("get quote", "id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load quote")
		return
	}
	s.writeJSON(w, http.StatusOK, quote)
}

func (s *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := seed.LoadCatalog(r.Context(), s.db)
	if err != nil {
		s.logger.Error("load catalog", "err", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}
	s.writeJSON(w, http.StatusOK, catalog)
}

// estimateUpload reads a multipart upload, runs the pipeline and prices the
// result. It writes the error response itself and reports ok == false when
// the request has been answered.
func (s *server) estimateUpload(w http.ResponseWriter, r *http.Request) (estimateResponse, string, bool) {
	if s.maxUploadBytes > 0 {
		if r.ContentLength > s.maxUploadBytes {
			s.writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return estimateResponse{}, "", false
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return estimateResponse{}, "", false
		}
		s.logger.Warn("parse multipart form", "err", err)
		s.writeError(w, http.StatusBadRequest, "Expected a multipart form upload")
		return estimateResponse{}, "", false
	}

	values, err := parseEstimateFormValues(r.MultipartForm.Value, s.defaults)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return estimateResponse{}, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing mesh file")
		return estimateResponse{}, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read uploaded file", "file", header.Filename, "err", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return estimateResponse{}, "", false
	}

	out, err := s.pipeline.Run(r.Context(), data, values.Config)
	if err != nil {
		s.writeRunError(w, header.Filename, err)
		return estimateResponse{}, "", false
	}

	req, fallbacks := pricing.NewRequest(float64(out.Estimate.PrintTimeMinutes), out.Estimate.MaterialUsageGrams, values.Material, values.Quality)
	s.logFallbacks(fallbacks)

	resp := estimateResponse{
		FileName: header.Filename,
		Mesh:     out.Mesh.Summary(),
		Config:   values.Config,
		Material: req.Material,
		Estimate: out.Estimate,
		Price:    pricing.Calculate(req),
	}
	for _, f := range fallbacks {
		resp.Warnings = append(resp.Warnings, f.Error())
	}

	s.logger.Debug("estimated upload",
		"file", header.Filename,
		"triangles", out.Mesh.TriangleCount,
		"minutes", out.Estimate.PrintTimeMinutes,
		"price", resp.Price.Price,
	)

	return resp, values.Notes, true
}

// writeRunError maps pipeline failures onto HTTP statuses. Only the
// sanitized message reaches the client.
func (s *server) writeRunError(w http.ResponseWriter, fileName string, err error) {
	status, message := runErrorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("estimate upload", "file", fileName, "err", err)
	} else {
		s.logger.Warn("estimate upload rejected", "file", fileName, "status", status, "err", err)
	}
	s.writeError(w, status, message)
}

func runErrorStatus(err error) (int, string) {
	var (
		malformed *mesh.MalformedFileError
		invalid   *estimate.InvalidConfigError
	)
	switch {
	case errors.As(err, &malformed):
		return http.StatusUnprocessableEntity, "Invalid mesh file: " + malformed.Reason
	case errors.As(err, &invalid):
		return http.StatusBadRequest, strings.TrimPrefix(invalid.Error(), "invalid print config: ")
	case errors.Is(err, mesh.ErrTriangleBudget):
		return http.StatusRequestEntityTooLarge, "Mesh has too many triangles"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "Estimate timed out"
	default:
		return http.StatusInternalServerError, "Failed to estimate print"
	}
}

func (s *server) logFallbacks(fallbacks []pricing.UnknownKeyFallback) {
	for _, f := range fallbacks {
		s.logger.Warn("unknown key, using default", "kind", f.Kind, "key", f.Key, "default", f.Default)
	}
}
