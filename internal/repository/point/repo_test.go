package point

import (
	"context"
	"errors"
	"testing"

	"github.com/whokrish/vectorbeats/internal/db"
	"github.com/whokrish/vectorbeats/internal/domain"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

func TestUpsert_MapsPoints(t *testing.T) {
	repo, ms := newTestRepo(t)
	var got []db.Record
	ms.upsertFn = func(_ context.Context, collection string, records []db.Record) error {
		if collection != "music_vectors" {
			t.Errorf("collection = %q", collection)
		}
		got = records
		return nil
	}

	p, _ := dompoint.New("song_123", []float32{0.1, 0.2}, metadata.Metadata{"title": metadata.String("Test")})
	if err := repo.Upsert(context.Background(), "music_vectors", []dompoint.Point{p}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "song_123" || got[0].Payload.Text("title") != "Test" {
		t.Errorf("records = %+v", got)
	}
}

func TestUpsert_UnknownCollection(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.upsertFn = func(_ context.Context, _ string, _ []db.Record) error {
		return &db.Error{Op: db.OpUpsert, Err: db.ErrCollectionNotFound}
	}

	err := repo.Upsert(context.Background(), "nope", nil)
	if !errors.Is(err, domain.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestGet_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _, id string, withVector bool) (db.Record, error) {
		if !withVector {
			t.Error("withVector not forwarded")
		}
		return db.Record{ID: id, Vector: []float32{1}, Payload: metadata.Metadata{"genre": metadata.String("rock")}}, nil
	}

	p, err := repo.Get(context.Background(), "music_vectors", "song_123", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID() != "song_123" || p.Metadata().Text("genre") != "rock" || len(p.Vector()) != 1 {
		t.Errorf("point = %+v", p)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "music_vectors", "missing", false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCount_ForwardsFilter(t *testing.T) {
	repo, ms := newTestRepo(t)
	expr, _ := filter.ParseMap(map[string]any{"genre": "rock"})
	ms.countFn = func(_ context.Context, _ string, f filter.Expression) (int, error) {
		if len(f.Conditions()) != 1 {
			t.Errorf("conditions = %d", len(f.Conditions()))
		}
		return 4, nil
	}

	n, err := repo.Count(context.Background(), "music_vectors", expr)
	if err != nil || n != 4 {
		t.Fatalf("Count() = %d, %v", n, err)
	}
}

func TestDelete_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.deleteFn = func(_ context.Context, _ string, _ ...string) error {
		return &db.Error{Op: db.OpDelete, Err: db.ErrUnavailable}
	}

	err := repo.Delete(context.Background(), "music_vectors", "song_123")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSetPayload_Forwards(t *testing.T) {
	repo, ms := newTestRepo(t)
	var got metadata.Metadata
	ms.setPayloadFn = func(_ context.Context, _, _ string, payload metadata.Metadata) error {
		got = payload
		return nil
	}

	fields := metadata.Metadata{"mood": metadata.String("calm")}
	if err := repo.SetPayload(context.Background(), "music_vectors", "song_123", fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(fields) {
		t.Errorf("payload = %v", got.Any())
	}
}
