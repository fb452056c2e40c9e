package point

import (
	"context"
	"testing"

	"github.com/whokrish/vectorbeats/internal/db"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	upsertFn         func(ctx context.Context, collection string, records []db.Record) error
	getFn            func(ctx context.Context, collection, id string, withVector bool) (db.Record, error)
	deleteFn         func(ctx context.Context, collection string, ids ...string) error
	deleteByFilterFn func(ctx context.Context, collection string, f filter.Expression) error
	countFn          func(ctx context.Context, collection string, f filter.Expression) (int, error)
	setPayloadFn     func(ctx context.Context, collection, id string, payload metadata.Metadata) error
}

func (m *mockStore) Upsert(ctx context.Context, collection string, records []db.Record) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, records)
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, collection, id string, withVector bool) (db.Record, error) {
	if m.getFn != nil {
		return m.getFn(ctx, collection, id, withVector)
	}
	return db.Record{}, &db.Error{Op: db.OpGet, Err: db.ErrPointNotFound}
}

func (m *mockStore) Delete(ctx context.Context, collection string, ids ...string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collection, ids...)
	}
	return nil
}

func (m *mockStore) DeleteByFilter(ctx context.Context, collection string, f filter.Expression) error {
	if m.deleteByFilterFn != nil {
		return m.deleteByFilterFn(ctx, collection, f)
	}
	return nil
}

func (m *mockStore) Count(ctx context.Context, collection string, f filter.Expression) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, collection, f)
	}
	return 0, nil
}

func (m *mockStore) SetPayload(ctx context.Context, collection, id string, payload metadata.Metadata) error {
	if m.setPayloadFn != nil {
		return m.setPayloadFn(ctx, collection, id, payload)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
