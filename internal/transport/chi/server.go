package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/whokrish/vectorbeats/internal/domain"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/modality"
	"github.com/whokrish/vectorbeats/internal/domain/search/request"
	healthuc "github.com/whokrish/vectorbeats/internal/usecase/health"
	pointuc "github.com/whokrish/vectorbeats/internal/usecase/point"
	"github.com/whokrish/vectorbeats/internal/version"
)

// DefaultMaxBatchSize bounds the number of points per batch request.
const DefaultMaxBatchSize = 1000

// Server binds the vector service to HTTP.
type Server struct {
	vectors       VectorService
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler

	defaultLimit     int
	maxLimit         int
	defaultThreshold float64
	maxBatchSize     int
}

// NewServer creates an HTTP API server.
func NewServer(vectors VectorService, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		vectors:          vectors,
		health:           health,
		logger:           logger,
		errorHandlers:    defaultErrorHandlers(),
		defaultLimit:     request.DefaultLimit,
		maxLimit:         request.MaxLimit,
		defaultThreshold: request.DefaultThreshold,
		maxBatchSize:     DefaultMaxBatchSize,
	}
}

// WithSearchDefaults overrides the default and maximum limit and the default threshold.
func (s *Server) WithSearchDefaults(defaultLimit, maxLimit int, threshold float64) *Server {
	if maxLimit > 0 && maxLimit <= request.MaxLimit {
		s.maxLimit = maxLimit
	}
	if defaultLimit > 0 && defaultLimit <= s.maxLimit {
		s.defaultLimit = defaultLimit
	}
	if threshold >= 0 && threshold <= 1 {
		s.defaultThreshold = threshold
	}
	return s
}

// WithMaxBatchSize sets the maximum number of points per batch request.
func (s *Server) WithMaxBatchSize(n int) *Server {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// --- Operational ---

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, c := range report.Checks {
		checks[name] = string(c)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ServiceInfo handles GET /service-info.
func (s *Server) ServiceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serviceInfoToResponse(s.vectors.Info(r.Context()), version.Version))
}

// --- Collections ---

// EnsureCollections handles POST /collections/ensure.
func (s *Server) EnsureCollections(w http.ResponseWriter, r *http.Request) {
	if err := s.vectors.EnsureCollections(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.ListCollections(w, r)
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	descs := s.vectors.AllCollectionsInfo(r.Context())
	resp := CollectionsResponse{Collections: make([]CollectionResponse, len(descs))}
	for i, d := range descs {
		resp.Collections[i] = descriptionToResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCollection handles GET /collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	name := chirouter.URLParam(r, "collection")
	info, err := s.vectors.CollectionInfo(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infoToResponse(name, info))
}

// CreateSnapshot handles POST /collections/{collection}/snapshots.
func (s *Server) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.vectors.Snapshot(r.Context(), chirouter.URLParam(r, "collection"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SnapshotResponse{
		Collection: snap.Collection,
		Name:       snap.Name,
		CreatedAt:  snap.CreatedAt,
		Size:       snap.Size,
	})
}

// --- Points ---

// UpsertPoint handles POST /collections/{collection}/points.
func (s *Server) UpsertPoint(w http.ResponseWriter, r *http.Request) {
	var req PointRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.vectors.Store(r.Context(), chirouter.URLParam(r, "collection"), pointuc.Item{
		ID:       req.ID,
		Vector:   req.Vector,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

// BatchUpsert handles POST /collections/{collection}/points/batch.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Points) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "points must not be empty")
		return
	}
	if len(req.Points) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, codeInvalidRequest,
			fmt.Sprintf("batch size %d exceeds maximum %d", len(req.Points), s.maxBatchSize))
		return
	}

	items := make([]pointuc.Item, len(req.Points))
	for i, p := range req.Points {
		items[i] = pointuc.Item{ID: p.ID, Vector: p.Vector, Metadata: p.Metadata}
	}

	results, err := s.vectors.StoreBatch(r.Context(), chirouter.URLParam(r, "collection"), items)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchToResponse(results))
}

// GetPoint handles GET /collections/{collection}/points/{id}.
func (s *Server) GetPoint(w http.ResponseWriter, r *http.Request) {
	withVector, _ := strconv.ParseBool(r.URL.Query().Get("with_vector"))

	p, err := s.vectors.Get(r.Context(),
		chirouter.URLParam(r, "collection"), chirouter.URLParam(r, "id"), withVector)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pointToResponse(p))
}

// PatchPoint handles PATCH /collections/{collection}/points/{id}.
func (s *Server) PatchPoint(w http.ResponseWriter, r *http.Request) {
	var fields metadata.Metadata
	if !s.decode(w, r, &fields) {
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "metadata must not be empty")
		return
	}

	err := s.vectors.UpdateMetadata(r.Context(),
		chirouter.URLParam(r, "collection"), chirouter.URLParam(r, "id"), fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePoint handles DELETE /collections/{collection}/points/{id}.
func (s *Server) DeletePoint(w http.ResponseWriter, r *http.Request) {
	err := s.vectors.Delete(r.Context(), chirouter.URLParam(r, "collection"), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteByFilter handles POST /collections/{collection}/points/delete.
func (s *Server) DeleteByFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !s.decode(w, r, &req) {
		return
	}
	f, err := filter.Parse(req.Filter)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.vectors.DeleteByFilter(r.Context(), chirouter.URLParam(r, "collection"), f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// CountPoints handles POST /collections/{collection}/points/count. An empty body counts everything.
func (s *Server) CountPoints(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	f, err := filter.Parse(req.Filter)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.vectors.Count(r.Context(), chirouter.URLParam(r, "collection"), f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// StoreMultimodal handles POST /multimodal.
func (s *Server) StoreMultimodal(w http.ResponseWriter, r *http.Request) {
	var req MultimodalRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, err := s.vectors.StoreMultimodal(r.Context(), req.ID, req.ImageVector, req.AudioVector, req.Metadata)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

// --- Search ---

// Search handles POST /collections/{collection}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !s.decode(w, r, &body) {
		return
	}

	limit, err := s.limit(body.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	threshold := s.defaultThreshold
	if body.Threshold != nil {
		threshold = *body.Threshold
	}
	f, err := filter.Parse(body.Filter)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	req, err := request.NewSimilarity(chirouter.URLParam(r, "collection"),
		body.Vector, limit, threshold, f, body.WithVector)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	candidates, err := s.vectors.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := SearchResponse{Results: make([]CandidateResponse, len(candidates))}
	for i := range candidates {
		resp.Results[i] = candidateToResponse(&candidates[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// HybridSearch handles POST /hybrid-search.
func (s *Server) HybridSearch(w http.ResponseWriter, r *http.Request) {
	var body HybridRequest
	if !s.decode(w, r, &body) {
		return
	}

	limit, err := s.limit(body.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	weights, err := modality.NewWeights(weightsFromRequest(body.Weights))
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	f, err := filter.Parse(body.Filter)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	req, err := request.NewHybrid(body.ImageVector, body.AudioVector, body.Text, weights, limit, f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	fused, err := s.vectors.HybridSearch(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := HybridResponse{Results: make([]FusedResponse, len(fused))}
	for i := range fused {
		resp.Results[i] = fusedToResponse(&fused[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// limit applies the configured default and maximum.
func (s *Server) limit(n int) (int, error) {
	if n == 0 {
		return s.defaultLimit, nil
	}
	if n < 1 || n > s.maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d: %w", s.maxLimit, domain.ErrInvalidRequest)
	}
	return n, nil
}

// --- Helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
