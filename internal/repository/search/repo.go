package search

import (
	"context"
	"fmt"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
	"github.com/whokrish/vectorbeats/internal/repository"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error)
	Scroll(ctx context.Context, q *db.ScrollQuery) ([]db.Record, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchKNN runs a vector similarity search with filter pre-filtering and the
// threshold pushed down to the engine. Candidates carry similarity scores in engine order.
func (r *Repo) SearchKNN(
	ctx context.Context, schema domcol.Schema,
	vector []float32, filters filter.Expression, limit int,
	threshold float64, includeVectors bool,
) ([]result.Candidate, error) {
	name := schema.Name()
	hits, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		Collection:  name,
		Metric:      schema.Metric(),
		Vector:      vector,
		Filters:     filters,
		Limit:       limit,
		Threshold:   &threshold,
		WithPayload: true,
		WithVector:  includeVectors,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", name, repository.MapError(err))
	}

	out := make([]result.Candidate, len(hits))
	for i, h := range hits {
		out[i] = result.NewCandidate(h.ID, h.Score, name, h.Payload, h.Vector)
	}
	return out, nil
}

// ScanText returns up to limit points whose text fields contain the phrase, narrowed by filters.
func (r *Repo) ScanText(
	ctx context.Context, collection, phrase string, fields []string,
	filters filter.Expression, limit int,
) ([]dompoint.Point, error) {
	recs, err := r.store.Scroll(ctx, &db.ScrollQuery{
		Collection: collection,
		Filters:    filters,
		Text:       phrase,
		TextFields: fields,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("scan text %s: %w", collection, repository.MapError(err))
	}

	out := make([]dompoint.Point, len(recs))
	for i, rec := range recs {
		out[i] = dompoint.Reconstruct(rec.ID, rec.Vector, rec.Payload)
	}
	return out, nil
}
