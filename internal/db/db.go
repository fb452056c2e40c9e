package db

import (
	"context"
	"time"

	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// Store is the vector engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on narrow sub-interfaces
type Store interface {
	Pinger
	CollectionManager
	PointStore
	Searcher
	Snapshotter
	Backend() Backend
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Backend identifies the engine behind a Store.
type Backend struct {
	Kind    string
	Address string
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}

// CollectionManager provides collection lifecycle operations.
type CollectionManager interface {
	ListCollections(ctx context.Context) ([]string, error)
	// CreateCollection returns ErrCollectionExists when the name is taken.
	CreateCollection(ctx context.Context, schema domcol.Schema) error
	// CollectionInfo returns ErrCollectionNotFound when absent.
	CollectionInfo(ctx context.Context, name string) (domcol.Info, error)
	// EnsurePayloadIndex succeeds whether or not the index pre-existed.
	EnsurePayloadIndex(ctx context.Context, collection, field string) error
}

// Record is a stored point as the engine sees it.
type Record struct {
	ID      string
	Vector  []float32
	Payload metadata.Metadata
}

// PointStore provides point CRUD operations.
type PointStore interface {
	Upsert(ctx context.Context, collection string, records []Record) error
	// Get returns ErrPointNotFound when absent.
	Get(ctx context.Context, collection, id string, withVector bool) (Record, error)
	Delete(ctx context.Context, collection string, ids ...string) error
	DeleteByFilter(ctx context.Context, collection string, f filter.Expression) error
	Count(ctx context.Context, collection string, f filter.Expression) (int, error)
	// SetPayload merges fields into an existing payload.
	SetPayload(ctx context.Context, collection, id string, payload metadata.Metadata) error
	Scroll(ctx context.Context, q *ScrollQuery) ([]Record, error)
}

// Searcher provides nearest-neighbor search.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) ([]Hit, error)
}

// Snapshot describes a backend snapshot of one collection.
type Snapshot struct {
	Name      string
	CreatedAt time.Time
	Size      int64
}

// Snapshotter creates collection snapshots.
type Snapshotter interface {
	// Snapshot returns ErrNotSupported on engines without snapshots.
	Snapshot(ctx context.Context, collection string) (Snapshot, error)
}
