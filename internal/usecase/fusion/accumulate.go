package fusion

import (
	"sort"

	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/modality"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
)

// ranked is one modality's candidate list with the weight it contributes at.
type ranked struct {
	modality   modality.Modality
	weight     float64
	candidates []result.Candidate
}

type entry struct {
	key        string
	combined   float64
	individual map[modality.Modality]float64
	types      []modality.Modality
	meta       metadata.Metadata
}

// accumulate merges weighted candidate lists by entity key.
// combined(key) = sum of score*weight over every candidate resolving to key.
// Keys keep first-insertion order, so equal combined scores stay in that order.
func accumulate(lists []ranked, limit int) []result.Fused {
	merged := make(map[string]*entry)
	var order []*entry

	for _, l := range lists {
		for i := range l.candidates {
			c := &l.candidates[i]
			key := c.EntityKey()

			e, ok := merged[key]
			if !ok {
				e = &entry{key: key, individual: make(map[modality.Modality]float64), meta: c.Metadata()}
				merged[key] = e
				order = append(order, e)
			}

			e.combined += c.Score() * l.weight

			if prev, seen := e.individual[l.modality]; !seen {
				e.individual[l.modality] = c.Score()
				e.types = append(e.types, l.modality)
			} else if c.Score() > prev {
				e.individual[l.modality] = c.Score()
			}

			// Most complete metadata wins.
			if len(c.Metadata()) > len(e.meta) {
				e.meta = c.Metadata()
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].combined > order[j].combined
	})

	if len(order) > limit {
		order = order[:limit]
	}

	out := make([]result.Fused, len(order))
	for i, e := range order {
		out[i] = result.NewFused(e.key, e.combined, e.individual, e.types, e.meta)
	}
	return out
}
