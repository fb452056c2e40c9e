package qdrant

import (
	"context"

	"github.com/whokrish/vectorbeats/internal/db"
)

// Snapshot asks qdrant for a collection snapshot.
func (s *Store) Snapshot(ctx context.Context, collection string) (db.Snapshot, error) {
	desc, err := s.client.CreateSnapshot(ctx, collection)
	if err != nil {
		return db.Snapshot{}, wrapErr(db.OpSnapshot, err)
	}
	snap := db.Snapshot{Name: desc.GetName(), Size: desc.GetSize()}
	if ts := desc.GetCreationTime(); ts != nil {
		snap.CreatedAt = ts.AsTime()
	}
	return snap, nil
}
