// Package chi exposes the HTTP API: health, search/ask, document lookup,
// index rebuild, and Prometheus metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/altglass/semqa/internal/domain"
	healthuc "github.com/altglass/semqa/internal/usecase/health"
	"github.com/altglass/semqa/internal/usecase/qa"
)

const rebuildTimeout = 10 * time.Minute

// Defaults applied when the request omits a field.
const (
	defaultTopK           = 1
	defaultUseApproximate = true
)

// Asker answers questions end to end.
type Asker interface {
	Ask(ctx context.Context, query string, useApproximate bool, topK int) (qa.Response, error)
}

// Rebuilder re-trains the partition index.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// DocumentReader resolves documents by id.
type DocumentReader interface {
	Get(id int) (domain.Document, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the HTTP API.
type Server struct {
	qa            Asker
	rebuilder     Rebuilder
	docs          DocumentReader
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	asker Asker,
	rebuilder Rebuilder,
	docs DocumentReader,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		qa:        asker,
		rebuilder: rebuilder,
		docs:      docs,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, "document_not_found"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, "embedding_provider_error"),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Post("/search", s.SearchPost)
	r.Get("/search", s.SearchGet)
	r.Get("/documents/{doc_id}", s.GetDocument)
	r.Post("/index/rebuild", s.RebuildIndex)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	Query          string `json:"query"`
	UseApproximate *bool  `json:"use_approximate"`
	TopK           *int   `json:"top_k"`
}

// SearchPost handles POST /search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	s.ask(w, r, req)
}

// SearchGet handles GET /search with query parameters.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := searchRequest{Query: q.Get("query")}

	if v := q.Get("use_approximate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_argument", "use_approximate must be a boolean")
			return
		}
		req.UseApproximate = &b
	}
	if v := q.Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_argument", "top_k must be an integer")
			return
		}
		req.TopK = &k
	}

	s.ask(w, r, req)
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request, req searchRequest) {
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "query is required")
		return
	}

	useApproximate := defaultUseApproximate
	if req.UseApproximate != nil {
		useApproximate = *req.UseApproximate
	}
	topK := defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	resp, err := s.qa.Ask(r.Context(), req.Query, useApproximate, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type documentResponse struct {
	ID         int       `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Embeddings []float32 `json:"embeddings"`
}

// GetDocument handles GET /documents/{doc_id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "doc_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "doc_id must be an integer")
		return
	}

	doc, err := s.docs.Get(id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		ID:         doc.ID(),
		Question:   doc.Question(),
		Answer:     doc.Answer(),
		Embeddings: doc.Embedding(),
	})
}

// RebuildIndex handles POST /index/rebuild. Training runs in the background;
// readers keep the current index until the swap.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
		defer cancel()

		if err := s.rebuilder.Rebuild(ctx); err != nil {
			s.logger.Error("Index rebuild failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebuilding"})
}

type healthResponse struct {
	Status       string                          `json:"status"`
	Checks       map[string]healthuc.CheckResult `json:"checks,omitempty"`
	DatabaseInfo healthuc.DatabaseInfo           `json:"database_info"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:       string(report.Status),
		Checks:       report.Checks,
		DatabaseInfo: report.DatabaseInfo,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrDocumentNotFound,
		domain.ErrNotFound,
		domain.ErrEmbeddingProvider,
		domain.ErrSearchFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
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
	writeError(w, http.StatusInternalServerError, "search_failure", msg)
}
