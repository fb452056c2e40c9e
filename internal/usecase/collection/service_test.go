package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/whokrish/vectorbeats/internal/domain"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

// --- Mocks ---

type mockRepo struct {
	mu          sync.Mutex
	live        map[string]domcol.Info
	infoErr     error
	createErr   error
	raceWinner  *domcol.Schema
	indexErr    error
	indexed     map[string][]string
	createCalls int
	infoCalls   int
	snapshot    domcol.Snapshot
}

func newMockRepo() *mockRepo {
	return &mockRepo{live: map[string]domcol.Info{}, indexed: map[string][]string{}}
}

func (m *mockRepo) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.live))
	for n := range m.live {
		names = append(names, n)
	}
	return names, nil
}

func (m *mockRepo) Info(_ context.Context, name string) (domcol.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoCalls++
	if m.infoErr != nil {
		return domcol.Info{}, m.infoErr
	}
	info, ok := m.live[name]
	if !ok {
		return domcol.Info{}, fmt.Errorf("collection info %s: %w", name, domain.ErrUnknownCollection)
	}
	return info, nil
}

func (m *mockRepo) Create(_ context.Context, schema domcol.Schema) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return false, m.createErr
	}
	if m.raceWinner != nil {
		m.live[schema.Name()] = domcol.Info{Schema: *m.raceWinner}
		return false, nil
	}
	m.live[schema.Name()] = domcol.Info{Schema: schema, Status: domcol.StatusGreen}
	return true, nil
}

func (m *mockRepo) EnsureIndexes(_ context.Context, name string, fields []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexErr != nil {
		return m.indexErr
	}
	m.indexed[name] = append(m.indexed[name], fields...)
	return nil
}

func (m *mockRepo) Snapshot(_ context.Context, name string) (domcol.Snapshot, error) {
	snap := m.snapshot
	snap.Collection = name
	return snap, nil
}

func makeSchema(t *testing.T, name string, dim int, metric domcol.Metric) domcol.Schema {
	t.Helper()
	s, err := domcol.NewSchema(name, dim, metric)
	if err != nil {
		t.Fatalf("domcol.NewSchema: %v", err)
	}
	return s
}

// --- Tests ---

func TestEnsure_CreatesWhenAbsent(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo)
	schema := makeSchema(t, "music_vectors", 128, domcol.MetricCosine)

	if err := svc.Ensure(context.Background(), schema, "genre", "mood"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", repo.createCalls)
	}
	if got := repo.indexed["music_vectors"]; len(got) != 2 {
		t.Errorf("indexed = %v", got)
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo)
	schema := makeSchema(t, "music_vectors", 128, domcol.MetricCosine)

	for range 3 {
		if err := svc.Ensure(context.Background(), schema); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if repo.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", repo.createCalls)
	}
}

func TestEnsure_SchemaConflict(t *testing.T) {
	tests := []struct {
		name     string
		existing domcol.Schema
	}{
		{"dimension", makeSchema(t, "music_vectors", 256, domcol.MetricCosine)},
		{"metric", makeSchema(t, "music_vectors", 128, domcol.MetricDot)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			repo.live["music_vectors"] = domcol.Info{Schema: tt.existing}
			svc := New(repo)

			err := svc.Ensure(context.Background(), makeSchema(t, "music_vectors", 128, domcol.MetricCosine))
			if !errors.Is(err, domain.ErrSchemaConflict) {
				t.Fatalf("expected ErrSchemaConflict, got %v", err)
			}
			var sc *domain.SchemaConflictError
			if !errors.As(err, &sc) || sc.Want != "128/cosine" || sc.Have != tt.existing.Shape() {
				t.Errorf("conflict = %+v", sc)
			}
			if repo.createCalls != 0 {
				t.Error("conflicting collection must not be recreated")
			}
		})
	}
}

func TestEnsure_CreationRaceChecksWinner(t *testing.T) {
	repo := newMockRepo()
	winner := makeSchema(t, "music_vectors", 64, domcol.MetricCosine)
	repo.raceWinner = &winner
	svc := New(repo)

	err := svc.Ensure(context.Background(), makeSchema(t, "music_vectors", 128, domcol.MetricCosine))
	if !errors.Is(err, domain.ErrSchemaConflict) {
		t.Fatalf("expected ErrSchemaConflict, got %v", err)
	}
}

func TestEnsure_BackendUnavailable(t *testing.T) {
	repo := newMockRepo()
	repo.infoErr = domain.ErrBackendUnavailable
	svc := New(repo)

	err := svc.Ensure(context.Background(), makeSchema(t, "music_vectors", 128, domcol.MetricCosine))
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestEnsureAll(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo,
		Definition{Schema: makeSchema(t, "music_vectors", 128, domcol.MetricCosine), PayloadIndexes: []string{"genre"}},
		Definition{Schema: makeSchema(t, "image_vectors", 512, domcol.MetricCosine)},
		Definition{Schema: makeSchema(t, "audio_vectors", 128, domcol.MetricCosine)},
		Definition{Schema: makeSchema(t, "hybrid_vectors", 640, domcol.MetricCosine)},
		Definition{Schema: makeSchema(t, "extra_vectors", 8, domcol.MetricEuclidean)},
	)

	if err := svc.EnsureAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createCalls != 5 {
		t.Errorf("createCalls = %d, want 5", repo.createCalls)
	}

	// Known schemas are served without a backend round trip.
	before := repo.infoCalls
	schema, err := svc.Schema(context.Background(), "hybrid_vectors")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Dimension() != 640 {
		t.Errorf("Dimension() = %d", schema.Dimension())
	}
	if repo.infoCalls != before {
		t.Error("Schema() hit the backend for a known collection")
	}
}

func TestSchema_RebuildsFromBackend(t *testing.T) {
	repo := newMockRepo()
	repo.live["legacy"] = domcol.Info{Schema: makeSchema(t, "legacy", 3, domcol.MetricDot)}
	svc := New(repo)

	schema, err := svc.Schema(context.Background(), "legacy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Metric() != domcol.MetricDot {
		t.Errorf("Metric() = %s", schema.Metric())
	}

	_, err = svc.Schema(context.Background(), "missing")
	if !errors.Is(err, domain.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestDescribeAll_ReportsPerCollection(t *testing.T) {
	repo := newMockRepo()
	repo.live["music_vectors"] = domcol.Info{
		Schema: makeSchema(t, "music_vectors", 128, domcol.MetricCosine), PointsCount: 12,
	}
	svc := New(repo,
		Definition{Schema: makeSchema(t, "music_vectors", 128, domcol.MetricCosine)},
		Definition{Schema: makeSchema(t, "image_vectors", 512, domcol.MetricCosine)},
	)

	got := svc.DescribeAll(context.Background())
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Err != nil || got[0].Info.PointsCount != 12 {
		t.Errorf("music_vectors = %+v", got[0])
	}
	if !errors.Is(got[1].Err, domain.ErrUnknownCollection) {
		t.Errorf("image_vectors err = %v", got[1].Err)
	}
}

func TestSnapshot_UnknownCollection(t *testing.T) {
	svc := New(newMockRepo())
	_, err := svc.Snapshot(context.Background(), "missing")
	if !errors.Is(err, domain.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}
