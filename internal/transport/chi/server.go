// Package chi exposes the HTTP API: signal ingestion, search, health
// and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imagedex/internal/domain"
	domquery "github.com/kailas-cloud/imagedex/internal/domain/query"
	"github.com/kailas-cloud/imagedex/internal/domain/signal"
	"github.com/kailas-cloud/imagedex/internal/logger"
	"github.com/kailas-cloud/imagedex/internal/metrics"
	healthuc "github.com/kailas-cloud/imagedex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/imagedex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/imagedex/internal/usecase/query"
)

// errorCode identifies the error class in API responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeQueryTooLarge     errorCode = "query_too_large"
	codeVectorDimMismatch errorCode = "vector_dim_mismatch"
	codeIndexNotFound     errorCode = "index_not_found"
	codeProviderError     errorCode = "provider_error"
	codeInternalError     errorCode = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the imagedex HTTP API.
type Server struct {
	ingest        *ingestuc.Service
	query         *queryuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	query *queryuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest: ingest,
		query:  query,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrQueryTooLarge, http.StatusBadRequest, codeQueryTooLarge),
		sentinelHandler(domain.ErrInvalidSignal, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrMissingVector, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, codeIndexNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrSummaryProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrExtractorError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()

	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(corsMiddleware)
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Post("/v1/images", s.IngestSignals)
	r.Post("/v1/search", s.Search)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	return r
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := middleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := log.With(zap.String("request_id", requestID))
			ctx := logger.ContextWithLogger(r.Context(), reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

// corsMiddleware mirrors the permissive CORS policy of the upstream API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ingestResponse is the JSON body for a successful ingestion.
type ingestResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
	Source string `json:"source"`
}

// IngestSignals handles POST /v1/images.
func (s *Server) IngestSignals(w http.ResponseWriter, r *http.Request) {
	var bundle signal.Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := s.ingest.Ingest(r.Context(), &bundle)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		Status: "indexed",
		ID:     id,
		Source: bundle.SourceLocator,
	})
}

// searchRequest is the JSON body for POST /v1/search.
type searchRequest struct {
	Text string `json:"text"`
}

// searchResponse envelopes ranked records.
type searchResponse struct {
	Status  string         `json:"status"`
	Records []searchRecord `json:"records"`
	Took    float64        `json:"took_ms"`
}

type searchRecord struct {
	Source   string  `json:"source"`
	Labels   string  `json:"labels,omitempty"`
	Entities string  `json:"entities,omitempty"`
	Score    float64 `json:"score"`
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "text is required")
		return
	}

	start := time.Now()
	records, err := s.query.Answer(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Status:  "ok",
		Records: recordsToAPI(records),
		Took:    float64(time.Since(start).Microseconds()) / 1000,
	})
}

func recordsToAPI(records []domquery.Record) []searchRecord {
	out := make([]searchRecord, len(records))
	for i, rec := range records {
		out[i] = searchRecord{
			Source:   rec.SourceLocator,
			Labels:   rec.Labels,
			Entities: rec.Entities,
			Score:    rec.Score,
		}
	}
	return out
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrQueryTooLarge,
		domain.ErrInvalidSignal,
		domain.ErrMissingVector,
		domain.ErrVectorDimMismatch,
		domain.ErrIndexNotFound,
		domain.ErrEmbeddingProviderError,
		domain.ErrSummaryProviderError,
		domain.ErrExtractorError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
