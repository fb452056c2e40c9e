package db

import (
	"strings"

	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	Collection string
	Metric     domcol.Metric
	Vector     []float32
	Filters    filter.Expression
	Limit      int
	// Threshold is a minimum similarity; nil disables it.
	Threshold   *float64
	WithPayload bool
	WithVector  bool
}

// ScrollQuery is the input for a filtered scan.
type ScrollQuery struct {
	Collection string
	Filters    filter.Expression
	// Text, when set, restricts the scan to points whose TextFields contain it,
	// ignoring case.
	Text       string
	TextFields []string
	Limit      int
	WithVector bool
}

// HasText reports whether the scan is restricted by text.
func (q *ScrollQuery) HasText() bool { return q.Text != "" && len(q.TextFields) > 0 }

// MatchesText reports whether any text field of payload contains q.Text, ignoring case.
// A query without text matches everything.
func (q *ScrollQuery) MatchesText(payload metadata.Metadata) bool {
	if !q.HasText() {
		return true
	}
	phrase := strings.ToLower(q.Text)
	for _, f := range q.TextFields {
		if strings.Contains(strings.ToLower(payload.Text(f)), phrase) {
			return true
		}
	}
	return false
}

// Hit is a single nearest-neighbor result.
// Score is a similarity (higher is closer) for every metric, see Similarity.
type Hit struct {
	Record
	Score float64
}
