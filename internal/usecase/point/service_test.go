package point

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/whokrish/vectorbeats/internal/domain"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// --- Mocks ---

type memRepo struct {
	points      map[string]dompoint.Point
	upsertCalls int
	upsertErrAt int // fail the n-th upsert call (1-based); 0 disables
	payloads    []metadata.Metadata
	deleted     []string
}

func newMemRepo() *memRepo {
	return &memRepo{points: map[string]dompoint.Point{}}
}

func (m *memRepo) Upsert(_ context.Context, _ string, points []dompoint.Point) error {
	m.upsertCalls++
	if m.upsertErrAt == m.upsertCalls {
		return fmt.Errorf("upsert: %w", domain.ErrBackendUnavailable)
	}
	for _, p := range points {
		m.points[p.ID()] = p
	}
	return nil
}

func (m *memRepo) Get(_ context.Context, _, id string, withVector bool) (dompoint.Point, error) {
	p, ok := m.points[id]
	if !ok {
		return dompoint.Point{}, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	if !withVector {
		return dompoint.Reconstruct(p.ID(), nil, p.Metadata()), nil
	}
	return p, nil
}

func (m *memRepo) Delete(_ context.Context, _, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.points, id)
	return nil
}

func (m *memRepo) DeleteByFilter(_ context.Context, _ string, f filter.Expression) error {
	for id, p := range m.points {
		if f.Matches(p.Metadata()) {
			delete(m.points, id)
		}
	}
	return nil
}

func (m *memRepo) Count(_ context.Context, _ string, f filter.Expression) (int, error) {
	n := 0
	for _, p := range m.points {
		if f.Matches(p.Metadata()) {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) SetPayload(_ context.Context, _, id string, fields metadata.Metadata) error {
	m.payloads = append(m.payloads, fields)
	p := m.points[id]
	merged := p.Metadata().Clone()
	if merged == nil {
		merged = metadata.Metadata{}
	}
	for k, v := range fields {
		merged[k] = v
	}
	m.points[id] = dompoint.Reconstruct(p.ID(), p.Vector(), merged)
	return nil
}

type fixedSchemas map[string]domcol.Schema

func (f fixedSchemas) Schema(_ context.Context, name string) (domcol.Schema, error) {
	s, ok := f[name]
	if !ok {
		return domcol.Schema{}, fmt.Errorf("describe %s: %w", name, domain.ErrUnknownCollection)
	}
	return s, nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	schema, err := domcol.NewSchema("music_vectors", 3, domcol.MetricCosine)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	repo := newMemRepo()
	svc := New(repo, fixedSchemas{"music_vectors": schema}).
		WithClock(func() time.Time { return testNow })
	return svc, repo
}

// --- Put ---

func TestPut_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	meta := metadata.Metadata{"title": metadata.String("Test")}

	id, err := svc.Put(ctx, "music_vectors", Item{Vector: []float32{0.1, 0.2, 0.3}, Metadata: meta})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated ID")
	}

	p, err := svc.Get(ctx, "music_vectors", id, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Metadata().Without(dompoint.FieldCreatedAt).Equal(meta) {
		t.Errorf("metadata = %v", p.Metadata().Any())
	}
	if !p.CreatedAt().Equal(testNow) {
		t.Errorf("CreatedAt() = %v", p.CreatedAt())
	}
	if len(p.Vector()) != 3 || p.Vector()[2] != 0.3 {
		t.Errorf("Vector() = %v", p.Vector())
	}
}

func TestPut_KeepsCallerID(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.Put(context.Background(), "music_vectors", Item{ID: "song_123", Vector: []float32{1, 0, 0}})
	if err != nil || id != "song_123" {
		t.Fatalf("Put() = %q, %v", id, err)
	}
}

func TestPut_DimensionMismatch(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Put(context.Background(), "music_vectors", Item{Vector: []float32{1, 2}})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	var dm *domain.DimensionMismatchError
	if !errors.As(err, &dm) || dm.Expected != 3 || dm.Actual != 2 || dm.Collection != "music_vectors" {
		t.Errorf("mismatch = %+v", dm)
	}
	if repo.upsertCalls != 0 || len(repo.points) != 0 {
		t.Error("collection modified on rejected put")
	}
}

func TestPut_InvalidItems(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name string
		item Item
		want error
	}{
		{"empty vector", Item{}, domain.ErrInvalidRequest},
		{"unknown collection", Item{Vector: []float32{1, 2, 3}}, domain.ErrUnknownCollection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll := "music_vectors"
			if tt.want == domain.ErrUnknownCollection {
				coll = "nope"
			}
			if _, err := svc.Put(context.Background(), coll, tt.item); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// --- PutBatch ---

func TestPutBatch_SkipsInvalidItem(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	results, err := svc.PutBatch(ctx, "music_vectors", []Item{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{1, 0}},
		{ID: "c", Vector: []float32{0, 0, 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if !results[0].OK() || results[1].OK() || !results[2].OK() {
		t.Errorf("statuses = %v %v %v", results[0].Status(), results[1].Status(), results[2].Status())
	}
	if !errors.Is(results[1].Err(), domain.ErrDimensionMismatch) || results[1].Index() != 1 {
		t.Errorf("results[1] = %d %v", results[1].Index(), results[1].Err())
	}

	n, _ := svc.Count(ctx, "music_vectors", filter.Expression{})
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	if len(repo.points) != 2 {
		t.Errorf("stored = %d, want 2", len(repo.points))
	}
}

func TestPutBatch_LogsSkippedItem(t *testing.T) {
	svc, _ := newTestService(t)
	core, logs := observer.New(zapcore.WarnLevel)
	svc.WithLogger(zap.New(core))

	_, err := svc.PutBatch(context.Background(), "music_vectors", []Item{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("Batch item skipped").All()
	if len(entries) != 1 {
		t.Fatalf("skip log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["index"] != int64(1) || fields["id"] != "b" || fields["collection"] != "music_vectors" {
		t.Errorf("fields = %v", fields)
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

func TestPutBatch_ChunksPreserveOrder(t *testing.T) {
	svc, repo := newTestService(t)
	svc.WithChunkSize(2)

	items := make([]Item, 5)
	for i := range items {
		items[i] = Item{ID: fmt.Sprintf("p-%d", i), Vector: []float32{1, float32(i), 0}}
	}
	results, err := svc.PutBatch(context.Background(), "music_vectors", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.upsertCalls != 3 {
		t.Errorf("upsertCalls = %d, want 3", repo.upsertCalls)
	}
	for i, r := range results {
		if r.Index() != i || r.ID() != items[i].ID {
			t.Errorf("results[%d] = %d/%s", i, r.Index(), r.ID())
		}
	}
}

func TestPutBatch_ChunkFailureReturnsWrittenResults(t *testing.T) {
	svc, repo := newTestService(t)
	svc.WithChunkSize(2)
	repo.upsertErrAt = 2

	items := []Item{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{0, 1, 0}},
		{ID: "c", Vector: []float32{0, 0, 1}},
	}
	results, err := svc.PutBatch(context.Background(), "music_vectors", items)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if len(results) != 2 || !results[0].OK() || !results[1].OK() {
		t.Errorf("results = %+v", results)
	}
}

// --- Get / Delete ---

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "music_vectors", "missing", false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	_, _ = svc.Put(ctx, "music_vectors", Item{ID: "a", Vector: []float32{1, 0, 0}})

	if err := svc.Delete(ctx, "music_vectors", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, "music_vectors", "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("backend deletes = %d, want 1", len(repo.deleted))
	}
}

func TestDeleteByFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for i, genre := range []string{"rock", "jazz", "rock"} {
		_, _ = svc.Put(ctx, "music_vectors", Item{
			ID:       fmt.Sprintf("p-%d", i),
			Vector:   []float32{1, 0, 0},
			Metadata: metadata.Metadata{"genre": metadata.String(genre)},
		})
	}

	rock, _ := filter.ParseMap(map[string]any{"genre": "rock"})
	n, err := svc.DeleteByFilter(ctx, "music_vectors", rock)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByFilter() = %d, %v", n, err)
	}
	left, _ := svc.Count(ctx, "music_vectors", filter.Expression{})
	if left != 1 {
		t.Errorf("remaining = %d, want 1", left)
	}

}

func TestDeleteByFilter_EmptyFilterRemovesAll(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	_, _ = svc.Put(ctx, "music_vectors", Item{ID: "a", Vector: []float32{1, 0, 0}})
	_, _ = svc.Put(ctx, "music_vectors", Item{ID: "b", Vector: []float32{0, 1, 0}})

	n, err := svc.DeleteByFilter(ctx, "music_vectors", filter.Expression{})
	if err != nil || n != 2 {
		t.Fatalf("DeleteByFilter(empty) = %d, %v, want 2", n, err)
	}
	if len(repo.points) != 0 {
		t.Errorf("remaining = %d, want 0", len(repo.points))
	}

	n, err = svc.DeleteByFilter(ctx, "music_vectors", filter.Expression{})
	if err != nil || n != 0 {
		t.Errorf("DeleteByFilter(empty) on empty collection = %d, %v", n, err)
	}
}

func TestDeleteByFilter_UnknownCollection(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.DeleteByFilter(context.Background(), "missing", filter.Expression{})
	if !errors.Is(err, domain.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

// --- UpdateMetadata ---

func TestUpdateMetadata(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	_, _ = svc.Put(ctx, "music_vectors", Item{
		ID: "a", Vector: []float32{1, 0, 0}, Metadata: metadata.Metadata{"mood": metadata.String("calm")},
	})

	err := svc.UpdateMetadata(ctx, "music_vectors", "a", metadata.Metadata{
		"mood":       metadata.String("dark"),
		"created_at": metadata.String("forged"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	patch := repo.payloads[0]
	if _, ok := patch[dompoint.FieldCreatedAt]; ok {
		t.Error("created_at must not be overwritten")
	}

	p, _ := svc.Get(ctx, "music_vectors", "a", false)
	if p.Metadata().Text("mood") != "dark" {
		t.Errorf("mood = %q", p.Metadata().Text("mood"))
	}
	if !p.UpdatedAt().Equal(testNow) {
		t.Errorf("UpdatedAt() = %v", p.UpdatedAt())
	}

	if err := svc.UpdateMetadata(ctx, "music_vectors", "missing", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
