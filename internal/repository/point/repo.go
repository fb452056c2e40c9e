package point

import (
	"context"
	"fmt"

	"github.com/whokrish/vectorbeats/internal/db"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/repository"
)

// store is the consumer interface for points (ISP).
type store interface {
	Upsert(ctx context.Context, collection string, records []db.Record) error
	Get(ctx context.Context, collection, id string, withVector bool) (db.Record, error)
	Delete(ctx context.Context, collection string, ids ...string) error
	DeleteByFilter(ctx context.Context, collection string, f filter.Expression) error
	Count(ctx context.Context, collection string, f filter.Expression) (int, error)
	SetPayload(ctx context.Context, collection, id string, payload metadata.Metadata) error
}

// Repo implements usecase/point.Repository.
type Repo struct {
	store store
}

// New creates a point repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert writes points in one engine call.
func (r *Repo) Upsert(ctx context.Context, collection string, points []dompoint.Point) error {
	records := make([]db.Record, len(points))
	for i, p := range points {
		records[i] = db.Record{ID: p.ID(), Vector: p.Vector(), Payload: p.Metadata()}
	}
	if err := r.store.Upsert(ctx, collection, records); err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), collection, repository.MapError(err))
	}
	return nil
}

// Get returns a point by ID. Returns domain.ErrNotFound when absent.
func (r *Repo) Get(ctx context.Context, collection, id string, withVector bool) (dompoint.Point, error) {
	rec, err := r.store.Get(ctx, collection, id, withVector)
	if err != nil {
		return dompoint.Point{}, fmt.Errorf("get %s/%s: %w", collection, id, repository.MapError(err))
	}
	return dompoint.Reconstruct(rec.ID, rec.Vector, rec.Payload), nil
}

// Delete removes a point by ID.
func (r *Repo) Delete(ctx context.Context, collection, id string) error {
	if err := r.store.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, repository.MapError(err))
	}
	return nil
}

// DeleteByFilter removes every point matching f.
func (r *Repo) DeleteByFilter(ctx context.Context, collection string, f filter.Expression) error {
	if err := r.store.DeleteByFilter(ctx, collection, f); err != nil {
		return fmt.Errorf("delete by filter in %s: %w", collection, repository.MapError(err))
	}
	return nil
}

// Count returns the number of points matching f.
func (r *Repo) Count(ctx context.Context, collection string, f filter.Expression) (int, error) {
	n, err := r.store.Count(ctx, collection, f)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, repository.MapError(err))
	}
	return n, nil
}

// SetPayload merges fields into the metadata of one point.
func (r *Repo) SetPayload(ctx context.Context, collection, id string, fields metadata.Metadata) error {
	if err := r.store.SetPayload(ctx, collection, id, fields); err != nil {
		return fmt.Errorf("set payload %s/%s: %w", collection, id, repository.MapError(err))
	}
	return nil
}
