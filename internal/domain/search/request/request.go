package request

import (
	"fmt"
	"strings"

	"github.com/whokrish/vectorbeats/internal/domain"
	"github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/modality"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed text phrase length.
	MaxTextLength    = 512
	DefaultLimit     = 10
	MaxLimit         = 100
	DefaultThreshold = 0.7
)

// Similarity is a validated single-collection nearest-neighbor query.
type Similarity struct {
	collection string
	vector     []float32
	limit      int
	threshold  float64
	filters    filter.Expression
	withVector bool
}

// NewSimilarity validates and normalizes search parameters.
// A zero limit defaults to DefaultLimit.
func NewSimilarity(
	collection string,
	vector []float32,
	limit int,
	threshold float64,
	filters filter.Expression,
	withVector bool,
) (Similarity, error) {
	if collection == "" {
		return Similarity{}, fmt.Errorf("collection is required: %w", domain.ErrInvalidRequest)
	}
	if err := point.ValidateVector(vector); err != nil {
		return Similarity{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return Similarity{}, err
	}
	if threshold < 0 || threshold > 1 {
		return Similarity{}, fmt.Errorf("threshold must be between 0 and 1: %w", domain.ErrInvalidRequest)
	}
	return Similarity{
		collection: collection,
		vector:     vector,
		limit:      limit,
		threshold:  threshold,
		filters:    filters,
		withVector: withVector,
	}, nil
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 1 || limit > MaxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d: %w", MaxLimit, domain.ErrInvalidRequest)
	}
	return limit, nil
}

// Collection returns the target collection name.
func (r *Similarity) Collection() string { return r.collection }

// Vector returns the query vector.
func (r *Similarity) Vector() []float32 { return r.vector }

// Limit returns the maximum results to return.
func (r *Similarity) Limit() int { return r.limit }

// Threshold returns the minimum score.
func (r *Similarity) Threshold() float64 { return r.threshold }

// Filters returns the pre-filter expression.
func (r *Similarity) Filters() filter.Expression { return r.filters }

// WithVector reports whether stored vectors should be returned.
func (r *Similarity) WithVector() bool { return r.withVector }

// Overfetch returns a copy whose limit is multiplied by factor.
// The result may exceed MaxLimit; it is meant for internal candidate gathering.
func (r Similarity) Overfetch(factor int) Similarity {
	if factor > 1 {
		r.limit *= factor
	}
	return r
}

// Hybrid is a validated multi-modality fusion query.
type Hybrid struct {
	image   []float32
	audio   []float32
	text    string
	weights modality.Weights
	limit   int
	filters filter.Expression
}

// NewHybrid validates a fusion query. Any subset of inputs may be empty.
func NewHybrid(
	image, audio []float32,
	text string,
	weights modality.Weights,
	limit int,
	filters filter.Expression,
) (Hybrid, error) {
	for name, v := range map[string][]float32{"image": image, "audio": audio} {
		if err := point.ValidateVector(v); err != nil {
			return Hybrid{}, fmt.Errorf("%s vector: %w: %v", name, domain.ErrInvalidRequest, err)
		}
	}
	text = strings.TrimSpace(text)
	if len(text) > MaxTextLength {
		return Hybrid{}, fmt.Errorf("text too long (max %d chars): %w", MaxTextLength, domain.ErrInvalidRequest)
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return Hybrid{}, err
	}
	return Hybrid{
		image:   image,
		audio:   audio,
		text:    text,
		weights: weights,
		limit:   limit,
		filters: filters,
	}, nil
}

// Image returns the image query vector (nil when absent).
func (r *Hybrid) Image() []float32 { return r.image }

// Audio returns the audio query vector (nil when absent).
func (r *Hybrid) Audio() []float32 { return r.audio }

// Text returns the trimmed text phrase ("" when absent).
func (r *Hybrid) Text() string { return r.text }

// Weights returns the fusion weights.
func (r *Hybrid) Weights() modality.Weights { return r.weights }

// Limit returns the maximum results to return.
func (r *Hybrid) Limit() int { return r.limit }

// Filters returns the filter shared by every modality.
func (r *Hybrid) Filters() filter.Expression { return r.filters }

// HasImage reports whether an image vector was supplied.
func (r *Hybrid) HasImage() bool { return len(r.image) > 0 }

// HasAudio reports whether an audio vector was supplied.
func (r *Hybrid) HasAudio() bool { return len(r.audio) > 0 }

// HasText reports whether a text phrase was supplied.
func (r *Hybrid) HasText() bool { return r.text != "" }

// Joint returns image ++ audio when both are supplied.
func (r *Hybrid) Joint() ([]float32, bool) {
	if !r.HasImage() || !r.HasAudio() {
		return nil, false
	}
	joint := make([]float32, 0, len(r.image)+len(r.audio))
	joint = append(joint, r.image...)
	joint = append(joint, r.audio...)
	return joint, true
}
