// Package relevance scores catalog metadata against a text phrase.
//
// It is a bounded heuristic over a few weighted fields, not a retrieval index.
package relevance

import (
	"strings"

	"github.com/whokrish/vectorbeats/internal/domain/metadata"
)

// FieldWeight is one scored metadata field.
type FieldWeight struct {
	Field  string
	Weight float64
}

// Fields is the fixed ordered weight table.
var Fields = []FieldWeight{
	{Field: "title", Weight: 0.4},
	{Field: "artist", Weight: 0.3},
	{Field: "album", Weight: 0.2},
	{Field: "genre", Weight: 0.1},
}

// PrefixBonus is the fraction of a field weight added when the field starts with the phrase.
const PrefixBonus = 0.5

// FieldNames returns the scored field names in table order.
func FieldNames() []string {
	names := make([]string, len(Fields))
	for i, f := range Fields {
		names[i] = f.Field
	}
	return names
}

// Score returns a value in [0,1]. An empty phrase scores 0.
func Score(phrase string, meta metadata.Metadata) float64 {
	q := strings.ToLower(strings.TrimSpace(phrase))
	if q == "" {
		return 0
	}
	score := 0.0
	for _, f := range Fields {
		value := strings.ToLower(meta.Text(f.Field))
		if !strings.Contains(value, q) {
			continue
		}
		score += f.Weight
		if strings.HasPrefix(value, q) {
			score += f.Weight * PrefixBonus
		}
	}
	return min(score, 1.0)
}
