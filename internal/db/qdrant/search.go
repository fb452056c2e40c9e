package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

// SearchKNN runs one nearest-neighbor query.
// qdrant reports euclidean results as distances; they are converted to similarities.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error) {
	req := &qdrant.QueryPoints{
		CollectionName: q.Collection,
		Query:          qdrant.NewQuery(q.Vector...),
		Filter:         TranslateFilter(q.Filters),
		Limit:          qdrant.PtrOf(uint64(q.Limit)), //nolint:gosec // validated positive
		WithPayload:    qdrant.NewWithPayload(q.WithPayload),
		WithVectors:    qdrant.NewWithVectors(q.WithVector),
	}
	if q.Threshold != nil {
		req.ScoreThreshold = nativeThreshold(q.Metric, *q.Threshold)
	}

	scored, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, wrapErr(db.OpQuery, err)
	}

	hits := make([]db.Hit, 0, len(scored))
	for _, p := range scored {
		r, err := toRecord(p.GetId(), p.GetPayload(), p.GetVectors(), db.OpQuery)
		if err != nil {
			return nil, err
		}
		hits = append(hits, db.Hit{Record: r, Score: similarity(q.Metric, float64(p.GetScore()))})
	}
	return hits, nil
}

func similarity(metric domcol.Metric, score float64) float64 {
	if metric == domcol.MetricEuclidean {
		return db.Similarity(metric, score)
	}
	return score
}

// nativeThreshold expresses a similarity threshold in qdrant's score space.
// For euclidean collections qdrant treats the threshold as a maximum distance.
func nativeThreshold(metric domcol.Metric, threshold float64) *float32 {
	if metric != domcol.MetricEuclidean {
		return qdrant.PtrOf(float32(threshold))
	}
	d, ok := db.MaxDistance(threshold)
	if !ok {
		return nil
	}
	return qdrant.PtrOf(float32(d))
}
