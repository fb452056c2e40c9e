package collection

import (
	"context"
	"testing"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	listFn     func(ctx context.Context) ([]string, error)
	createFn   func(ctx context.Context, schema domcol.Schema) error
	infoFn     func(ctx context.Context, name string) (domcol.Info, error)
	indexFn    func(ctx context.Context, collection, field string) error
	snapshotFn func(ctx context.Context, collection string) (db.Snapshot, error)
}

func (m *mockStore) ListCollections(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) CreateCollection(ctx context.Context, schema domcol.Schema) error {
	if m.createFn != nil {
		return m.createFn(ctx, schema)
	}
	return nil
}

func (m *mockStore) CollectionInfo(ctx context.Context, name string) (domcol.Info, error) {
	if m.infoFn != nil {
		return m.infoFn(ctx, name)
	}
	return domcol.Info{}, nil
}

func (m *mockStore) EnsurePayloadIndex(ctx context.Context, collection, field string) error {
	if m.indexFn != nil {
		return m.indexFn(ctx, collection, field)
	}
	return nil
}

func (m *mockStore) Snapshot(ctx context.Context, collection string) (db.Snapshot, error) {
	if m.snapshotFn != nil {
		return m.snapshotFn(ctx, collection)
	}
	return db.Snapshot{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testSchema(t *testing.T) domcol.Schema {
	t.Helper()
	s, err := domcol.NewSchema("music_vectors", 128, domcol.MetricCosine)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}
