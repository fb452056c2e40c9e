package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/repository"
)

// store is the consumer interface for collections (ISP).
type store interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, schema domcol.Schema) error
	CollectionInfo(ctx context.Context, name string) (domcol.Info, error)
	EnsurePayloadIndex(ctx context.Context, collection, field string) error
	Snapshot(ctx context.Context, collection string) (db.Snapshot, error)
}

// Repo implements usecase/collection.Repository.
type Repo struct {
	store store
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// List returns the names of all collections in the engine.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	names, err := r.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", repository.MapError(err))
	}
	return names, nil
}

// Info describes a live collection. Returns domain.ErrUnknownCollection when absent.
func (r *Repo) Info(ctx context.Context, name string) (domcol.Info, error) {
	info, err := r.store.CollectionInfo(ctx, name)
	if err != nil {
		return domcol.Info{}, fmt.Errorf("collection info %s: %w", name, repository.MapError(err))
	}
	return info, nil
}

// Create creates a collection. It reports false when the name was already taken.
func (r *Repo) Create(ctx context.Context, schema domcol.Schema) (bool, error) {
	err := r.store.CreateCollection(ctx, schema)
	if errors.Is(err, db.ErrCollectionExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create collection %s: %w", schema.Name(), repository.MapError(err))
	}
	return true, nil
}

// EnsureIndexes creates keyword payload indexes. Existing indexes are left alone.
func (r *Repo) EnsureIndexes(ctx context.Context, name string, fields []string) error {
	for _, f := range fields {
		if err := r.store.EnsurePayloadIndex(ctx, name, f); err != nil {
			return fmt.Errorf("payload index %s.%s: %w", name, f, repository.MapError(err))
		}
	}
	return nil
}

// Snapshot creates a backend snapshot of one collection.
func (r *Repo) Snapshot(ctx context.Context, name string) (domcol.Snapshot, error) {
	snap, err := r.store.Snapshot(ctx, name)
	if err != nil {
		return domcol.Snapshot{}, fmt.Errorf("snapshot %s: %w", name, repository.MapError(err))
	}
	return domcol.Snapshot{
		Collection: name,
		Name:       snap.Name,
		CreatedAt:  snap.CreatedAt,
		Size:       snap.Size,
	}, nil
}
