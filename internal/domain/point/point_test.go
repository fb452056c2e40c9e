package point

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/whokrish/vectorbeats/internal/domain/metadata"
)

func TestNew_DropsStoreOwnedFields(t *testing.T) {
	meta := metadata.Metadata{
		"title":      metadata.String("Test"),
		"created_at": metadata.String("1999-01-01T00:00:00Z"),
		"vector_id":  metadata.String("spoofed"),
	}

	p, err := New("song_123", []float32{0.1, 0.2, 0.3}, meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID() != "song_123" {
		t.Errorf("ID() = %q", p.ID())
	}
	if len(p.Metadata()) != 1 || p.Metadata().Text("title") != "Test" {
		t.Errorf("Metadata() = %v", p.Metadata().Any())
	}
	if _, ok := meta["created_at"]; !ok {
		t.Error("New mutated caller metadata")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		vector   []float32
		contains string
	}{
		{"long id", strings.Repeat("x", MaxIDLength+1), []float32{1}, "too long"},
		{"nan", "a", []float32{1, float32(math.NaN())}, "component 1"},
		{"inf", "a", []float32{float32(math.Inf(-1))}, "component 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, tt.vector, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want %q", err, tt.contains)
			}
		})
	}
}

func TestStamped(t *testing.T) {
	p, err := New("", []float32{1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	stamped := p.Stamped(now)
	if !stamped.CreatedAt().Equal(now) {
		t.Errorf("CreatedAt() = %v, want %v", stamped.CreatedAt(), now)
	}
	if !p.CreatedAt().IsZero() {
		t.Error("Stamped mutated the receiver")
	}
	if !stamped.UpdatedAt().IsZero() {
		t.Error("UpdatedAt() should be zero")
	}
}
