package collection

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxDimension bounds vector dimensionality accepted at creation.
const MaxDimension = 65536

// Metric is the distance function a collection is built with.
type Metric string

const (
	// MetricCosine ranks by cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricEuclidean ranks by L2 distance.
	MetricEuclidean Metric = "euclidean"
	// MetricDot ranks by inner product.
	MetricDot Metric = "dot"
)

// IsValid checks if the metric is supported.
func (m Metric) IsValid() bool {
	return m == MetricCosine || m == MetricEuclidean || m == MetricDot
}

// ParseMetric parses a metric name. Empty defaults to cosine.
func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return MetricCosine, nil
	}
	m := Metric(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown distance metric %q (want cosine, euclidean or dot)", s)
	}
	return m, nil
}

// Schema is the immutable shape of a collection: name, dimension and metric.
type Schema struct {
	name      string
	dimension int
	metric    Metric
}

// NewSchema validates and creates a Schema.
func NewSchema(name string, dimension int, metric Metric) (Schema, error) {
	if err := validateName(name); err != nil {
		return Schema{}, err
	}
	if dimension <= 0 || dimension > MaxDimension {
		return Schema{}, fmt.Errorf("collection %q: dimension must be between 1 and %d, got %d",
			name, MaxDimension, dimension)
	}
	if !metric.IsValid() {
		return Schema{}, fmt.Errorf("collection %q: unknown distance metric %q", name, metric)
	}
	return Schema{name: name, dimension: dimension, metric: metric}, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// Name returns the collection name.
func (s Schema) Name() string { return s.name }

// Dimension returns the vector dimensionality.
func (s Schema) Dimension() int { return s.dimension }

// Metric returns the distance metric.
func (s Schema) Metric() Metric { return s.metric }

// SameShape reports whether dimension and metric match.
func (s Schema) SameShape(o Schema) bool {
	return s.dimension == o.dimension && s.metric == o.metric
}

// Shape renders dimension and metric, e.g. "512/cosine".
func (s Schema) Shape() string {
	return strconv.Itoa(s.dimension) + "/" + string(s.metric)
}

// Status is the backend-reported health of a collection.
type Status string

const (
	// StatusGreen means the collection is fully ready.
	StatusGreen Status = "green"
	// StatusYellow means optimization is in progress.
	StatusYellow Status = "yellow"
	// StatusGrey means optimization is pending.
	StatusGrey Status = "grey"
	// StatusRed means the backend reports a failure.
	StatusRed Status = "red"
	// StatusUnknown means the backend does not report a status.
	StatusUnknown Status = "unknown"
)

// Info describes a live collection as seen by the backend.
type Info struct {
	Schema         Schema
	PointsCount    int
	IndexedVectors int
	Status         Status
	PayloadIndexes []string
}

// Snapshot describes a backend snapshot of one collection.
type Snapshot struct {
	Collection string
	Name       string
	CreatedAt  time.Time
	Size       int64
}
