package search

import (
	"context"
	"testing"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn func(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error)
	scrollFn    func(ctx context.Context, q *db.ScrollQuery) ([]db.Record, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) Scroll(ctx context.Context, q *db.ScrollQuery) ([]db.Record, error) {
	if m.scrollFn != nil {
		return m.scrollFn(ctx, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testSchema(t *testing.T, metric domcol.Metric) domcol.Schema {
	t.Helper()
	s, err := domcol.NewSchema("music_vectors", 4, metric)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}
