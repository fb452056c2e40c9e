package request

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/whokrish/vectorbeats/internal/domain"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/modality"
)

func TestNewSimilarity_Defaults(t *testing.T) {
	r, err := NewSimilarity("music_vectors", []float32{0.1, 0.2}, 0, 0.7, filter.Expression{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Threshold() != 0.7 {
		t.Errorf("Threshold() = %v", r.Threshold())
	}
	if r.WithVector() {
		t.Error("WithVector() = true")
	}
}

func TestNewSimilarity_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		coll      string
		vec       []float32
		limit     int
		threshold float64
	}{
		{"no collection", "", []float32{1}, 1, 0},
		{"limit too big", "c", []float32{1}, MaxLimit + 1, 0},
		{"negative limit", "c", []float32{1}, -1, 0},
		{"threshold above one", "c", []float32{1}, 1, 1.5},
		{"negative threshold", "c", []float32{1}, 1, -0.1},
		{"nan component", "c", []float32{float32(math.NaN())}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimilarity(tt.coll, tt.vec, tt.limit, tt.threshold, filter.Expression{}, false)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestNewHybrid_Joint(t *testing.T) {
	r, err := NewHybrid([]float32{1, 2}, []float32{3}, "  abc ", modality.DefaultWeights(), 5, filter.Expression{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Text() != "abc" {
		t.Errorf("Text() = %q, want trimmed", r.Text())
	}
	joint, ok := r.Joint()
	if !ok {
		t.Fatal("Joint() ok = false")
	}
	want := []float32{1, 2, 3}
	for i := range want {
		if joint[i] != want[i] {
			t.Fatalf("Joint() = %v, want %v", joint, want)
		}
	}
}

func TestNewHybrid_NoJointWithoutBoth(t *testing.T) {
	r, err := NewHybrid([]float32{1}, nil, "", modality.DefaultWeights(), 0, filter.Expression{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.Joint(); ok {
		t.Error("Joint() ok = true with only image")
	}
	if r.HasAudio() || r.HasText() || !r.HasImage() {
		t.Error("Has* flags wrong")
	}
}

func TestNewHybrid_Empty(t *testing.T) {
	r, err := NewHybrid(nil, nil, "", modality.DefaultWeights(), 0, filter.Expression{})
	if err != nil {
		t.Fatalf("empty hybrid request must be valid: %v", err)
	}
	if r.HasImage() || r.HasAudio() || r.HasText() {
		t.Error("expected no modalities")
	}
}

func TestNewHybrid_TextTooLong(t *testing.T) {
	_, err := NewHybrid(nil, nil, strings.Repeat("a", MaxTextLength+1), modality.DefaultWeights(), 0, filter.Expression{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSimilarity_Overfetch(t *testing.T) {
	req, err := NewSimilarity("image_vectors", []float32{1}, MaxLimit, 0.7, filter.Expression{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wide := req.Overfetch(2)
	if wide.Limit() != 2*MaxLimit {
		t.Errorf("Limit() = %d, want %d", wide.Limit(), 2*MaxLimit)
	}
	if req.Limit() != MaxLimit {
		t.Error("Overfetch mutated the receiver")
	}
}
