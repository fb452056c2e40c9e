package collection

import (
	"strings"
	"testing"
)

func TestNewSchema_Valid(t *testing.T) {
	s, err := NewSchema("music_vectors", 128, MetricCosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "music_vectors" || s.Dimension() != 128 || s.Metric() != MetricCosine {
		t.Errorf("got %s %s", s.Name(), s.Shape())
	}
	if s.Shape() != "128/cosine" {
		t.Errorf("Shape() = %q", s.Shape())
	}
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		colName  string
		dim      int
		metric   Metric
		contains string
	}{
		{"empty name", "", 3, MetricCosine, "required"},
		{"long name", strings.Repeat("a", 65), 3, MetricCosine, "too long"},
		{"bad chars", "col.name", 3, MetricCosine, "alphanumeric"},
		{"zero dim", "c", 0, MetricCosine, "dimension"},
		{"huge dim", "c", MaxDimension + 1, MetricCosine, "dimension"},
		{"bad metric", "c", 3, Metric("manhattan"), "metric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.colName, tt.dim, tt.metric)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want substring %q", err, tt.contains)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	if err != nil || m != MetricCosine {
		t.Errorf("ParseMetric(\"\") = %q, %v", m, err)
	}
	for _, s := range []string{"cosine", "euclidean", "dot"} {
		if _, err := ParseMetric(s); err != nil {
			t.Errorf("ParseMetric(%q): %v", s, err)
		}
	}
	if _, err := ParseMetric("l1"); err == nil {
		t.Error("expected error for l1")
	}
}

func TestSchema_SameShape(t *testing.T) {
	a, _ := NewSchema("a", 3, MetricCosine)
	b, _ := NewSchema("b", 3, MetricCosine)
	c, _ := NewSchema("a", 3, MetricDot)
	if !a.SameShape(b) {
		t.Error("a and b share a shape")
	}
	if a.SameShape(c) {
		t.Error("a and c differ in metric")
	}
}
