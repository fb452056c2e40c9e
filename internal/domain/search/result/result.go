package result

import (
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/modality"
)

// EntityIDField is the payload field correlating points across collections.
const EntityIDField = "entity_id"

// Candidate is a single-modality search hit.
type Candidate struct {
	id         string
	score      float64
	collection string
	metadata   metadata.Metadata
	vector     []float32
}

// NewCandidate creates a search candidate.
func NewCandidate(id string, score float64, collection string, meta metadata.Metadata, vector []float32) Candidate {
	return Candidate{id: id, score: score, collection: collection, metadata: meta, vector: vector}
}

// ID returns the point identifier.
func (c *Candidate) ID() string { return c.id }

// Score returns the engine-native score.
func (c *Candidate) Score() float64 { return c.score }

// Collection returns the collection the hit came from.
func (c *Candidate) Collection() string { return c.collection }

// Metadata returns the point payload.
func (c *Candidate) Metadata() metadata.Metadata { return c.metadata }

// Vector returns the stored vector (nil unless requested).
func (c *Candidate) Vector() []float32 { return c.vector }

// EntityKey returns entity_id when present and non-empty, else the point ID.
func (c *Candidate) EntityKey() string {
	if v, ok := c.metadata[EntityIDField]; ok {
		if s := v.Text(); s != "" {
			return s
		}
	}
	return c.id
}

// Fused is one entry of a fused ranking.
type Fused struct {
	id          string
	score       float64
	individual  map[modality.Modality]float64
	searchTypes []modality.Modality
	metadata    metadata.Metadata
}

// NewFused creates a fused result.
func NewFused(
	id string, score float64,
	individual map[modality.Modality]float64, searchTypes []modality.Modality,
	meta metadata.Metadata,
) Fused {
	return Fused{id: id, score: score, individual: individual, searchTypes: searchTypes, metadata: meta}
}

// ID returns the entity key.
func (f *Fused) ID() string { return f.id }

// Score returns the combined weighted score.
func (f *Fused) Score() float64 { return f.score }

// IndividualScores returns the raw score per contributing modality.
func (f *Fused) IndividualScores() map[modality.Modality]float64 { return f.individual }

// SearchTypes returns the contributing modalities in contribution order.
func (f *Fused) SearchTypes() []modality.Modality { return f.searchTypes }

// Metadata returns the most complete payload seen for the entity.
func (f *Fused) Metadata() metadata.Metadata { return f.metadata }
