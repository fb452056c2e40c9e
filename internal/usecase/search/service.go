package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/whokrish/vectorbeats/internal/domain"
	"github.com/whokrish/vectorbeats/internal/domain/search/request"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
	"github.com/whokrish/vectorbeats/internal/metrics"
)

// Service runs single-collection nearest-neighbor searches.
type Service struct {
	repo    Repository
	schemas SchemaResolver
}

// New creates a search service.
func New(repo Repository, schemas SchemaResolver) *Service {
	return &Service{repo: repo, schemas: schemas}
}

// Search issues exactly one backend query. Results are ordered by score
// descending, every score is at least the threshold, and at most Limit are returned.
func (s *Service) Search(ctx context.Context, req *request.Similarity) ([]result.Candidate, error) {
	start := time.Now()
	results, err := s.search(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues("similarity", status).Inc()
	metrics.SearchDuration.WithLabelValues("similarity").Observe(time.Since(start).Seconds())
	return results, err
}

func (s *Service) search(ctx context.Context, req *request.Similarity) ([]result.Candidate, error) {
	schema, err := s.schemas.Schema(ctx, req.Collection())
	if err != nil {
		return nil, err //nolint:wrapcheck // registry errors carry the collection name
	}
	if len(req.Vector()) != schema.Dimension() {
		return nil, domain.NewDimensionMismatch(schema.Name(), schema.Dimension(), len(req.Vector()))
	}

	results, err := s.repo.SearchKNN(
		ctx, schema, req.Vector(), req.Filters(), req.Limit(), req.Threshold(), req.WithVector(),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", schema.Name(), err)
	}

	// Post-filter: engines may round thresholds in their own score space.
	filtered := results[:0]
	for _, r := range results {
		if r.Score() >= req.Threshold() {
			filtered = append(filtered, r)
		}
	}
	results = filtered

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	if len(results) > req.Limit() {
		results = results[:req.Limit()]
	}
	return results, nil
}
