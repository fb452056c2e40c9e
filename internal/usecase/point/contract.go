package point

import (
	"context"

	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// Repository defines the storage contract for points.
type Repository interface {
	Upsert(ctx context.Context, collection string, points []dompoint.Point) error
	Get(ctx context.Context, collection, id string, withVector bool) (dompoint.Point, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteByFilter(ctx context.Context, collection string, f filter.Expression) error
	Count(ctx context.Context, collection string, f filter.Expression) (int, error)
	SetPayload(ctx context.Context, collection, id string, fields metadata.Metadata) error
}

// SchemaResolver looks up the schema of a collection.
type SchemaResolver interface {
	Schema(ctx context.Context, name string) (domcol.Schema, error)
}
