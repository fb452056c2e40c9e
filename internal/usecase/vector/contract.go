package vector

import (
	"context"

	dombatch "github.com/whokrish/vectorbeats/internal/domain/batch"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/request"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
	"github.com/whokrish/vectorbeats/internal/usecase/collection"
	"github.com/whokrish/vectorbeats/internal/usecase/point"
)

// Registry is the collection registry.
type Registry interface {
	EnsureAll(ctx context.Context) error
	Describe(ctx context.Context, name string) (domcol.Info, error)
	DescribeAll(ctx context.Context) []collection.Description
	Snapshot(ctx context.Context, name string) (domcol.Snapshot, error)
}

// Points is the validated vector store.
type Points interface {
	Put(ctx context.Context, collection string, item point.Item) (string, error)
	PutBatch(ctx context.Context, collection string, items []point.Item) ([]dombatch.Result, error)
	Get(ctx context.Context, collection, id string, withVector bool) (dompoint.Point, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteByFilter(ctx context.Context, collection string, f filter.Expression) (int, error)
	Count(ctx context.Context, collection string, f filter.Expression) (int, error)
	UpdateMetadata(ctx context.Context, collection, id string, fields metadata.Metadata) error
}

// Searcher runs single-collection similarity searches.
type Searcher interface {
	Search(ctx context.Context, req *request.Similarity) ([]result.Candidate, error)
}

// Fuser runs hybrid multimodal searches.
type Fuser interface {
	Fuse(ctx context.Context, req *request.Hybrid) ([]result.Fused, error)
}

// Engine reports vector backend connectivity.
type Engine interface {
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}
