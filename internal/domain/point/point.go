package point

import (
	"fmt"
	"math"
	"time"

	"github.com/whokrish/vectorbeats/internal/domain/metadata"
)

// Payload fields owned by the store. Callers cannot set them.
const (
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldVectorID  = "vector_id"
)

// MaxIDLength bounds caller-supplied point IDs.
const MaxIDLength = 256

// Point is one stored vector with its metadata (immutable value object).
type Point struct {
	id       string
	vector   []float32
	metadata metadata.Metadata
}

// New validates and creates a Point. An empty id is allowed and filled in by the store.
// Store-owned fields in meta are dropped.
func New(id string, vector []float32, meta metadata.Metadata) (Point, error) {
	if len(id) > MaxIDLength {
		return Point{}, fmt.Errorf("point ID too long (max %d)", MaxIDLength)
	}
	if err := ValidateVector(vector); err != nil {
		return Point{}, err
	}
	return Point{
		id:       id,
		vector:   vector,
		metadata: meta.Without(FieldCreatedAt, FieldUpdatedAt, FieldVectorID),
	}, nil
}

// Reconstruct creates a Point without validation (storage hydration).
func Reconstruct(id string, vector []float32, meta metadata.Metadata) Point {
	return Point{id: id, vector: vector, metadata: meta}
}

// ValidateVector rejects vectors with NaN or infinite components.
func ValidateVector(vector []float32) error {
	for i, x := range vector {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("vector component %d is not finite", i)
		}
	}
	return nil
}

// ID returns the point identifier.
func (p Point) ID() string { return p.id }

// Vector returns the stored vector. Nil when not requested from the store.
func (p Point) Vector() []float32 { return p.vector }

// Metadata returns the payload.
func (p Point) Metadata() metadata.Metadata { return p.metadata }

// WithID returns a copy carrying the given ID.
func (p Point) WithID(id string) Point {
	p.id = id
	return p
}

// Stamped returns a copy with created_at set to now.
func (p Point) Stamped(now time.Time) Point {
	p.metadata = p.metadata.With(FieldCreatedAt, metadata.String(now.UTC().Format(time.RFC3339Nano)))
	return p
}

// CreatedAt parses the created_at field. Zero when absent.
func (p Point) CreatedAt() time.Time { return parseTime(p.metadata, FieldCreatedAt) }

// UpdatedAt parses the updated_at field. Zero when absent.
func (p Point) UpdatedAt() time.Time { return parseTime(p.metadata, FieldUpdatedAt) }

func parseTime(m metadata.Metadata, key string) time.Time {
	s, ok := m[key].AsString()
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
