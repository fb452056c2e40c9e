package chi

import (
	"context"

	dombatch "github.com/whokrish/vectorbeats/internal/domain/batch"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/request"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
	collectionuc "github.com/whokrish/vectorbeats/internal/usecase/collection"
	healthuc "github.com/whokrish/vectorbeats/internal/usecase/health"
	pointuc "github.com/whokrish/vectorbeats/internal/usecase/point"
	vectoruc "github.com/whokrish/vectorbeats/internal/usecase/vector"
)

// VectorService is the subset of the vector facade the HTTP layer serves.
//
//nolint:interfacebloat // one method per route
type VectorService interface {
	EnsureCollections(ctx context.Context) error
	AllCollectionsInfo(ctx context.Context) []collectionuc.Description
	CollectionInfo(ctx context.Context, name string) (domcol.Info, error)
	Snapshot(ctx context.Context, name string) (domcol.Snapshot, error)

	Store(ctx context.Context, collection string, item pointuc.Item) (string, error)
	StoreBatch(ctx context.Context, collection string, items []pointuc.Item) ([]dombatch.Result, error)
	StoreMultimodal(ctx context.Context, id string, image, audio []float32, meta metadata.Metadata) (string, error)
	Get(ctx context.Context, collection, id string, withVector bool) (dompoint.Point, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteByFilter(ctx context.Context, collection string, f filter.Expression) (int, error)
	Count(ctx context.Context, collection string, f filter.Expression) (int, error)
	UpdateMetadata(ctx context.Context, collection, id string, fields metadata.Metadata) error

	Search(ctx context.Context, req *request.Similarity) ([]result.Candidate, error)
	HybridSearch(ctx context.Context, req *request.Hybrid) ([]result.Fused, error)

	Info(ctx context.Context) vectoruc.ServiceInfo
}

// HealthChecker reports service readiness.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
