package search

import (
	"context"

	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
)

// Repository defines the storage contract for similarity search.
type Repository interface {
	SearchKNN(
		ctx context.Context, schema domcol.Schema,
		vector []float32, filters filter.Expression, limit int,
		threshold float64, includeVectors bool,
	) ([]result.Candidate, error)
}

// SchemaResolver looks up the schema of a collection.
type SchemaResolver interface {
	Schema(ctx context.Context, name string) (domcol.Schema, error)
}
