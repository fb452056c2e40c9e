package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/whokrish/vectorbeats/internal/db"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// Upsert writes records and waits for the write to be applied.
// The caller ID is kept in the payload so non-native IDs survive the round trip.
func (s *Store) Upsert(ctx context.Context, collection string, records []db.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		payload := toPayload(r.Payload)
		payload[point.FieldVectorID] = qdrant.NewValueString(r.ID)
		points[i] = &qdrant.PointStruct{
			Id:      pointID(r.ID),
			Vectors: qdrant.NewVectorsDense(r.Vector),
			Payload: payload,
		}
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return wrapErr(db.OpUpsert, err)
	}
	return nil
}

// Get returns one point by caller ID.
func (s *Store) Get(ctx context.Context, collection, id string, withVector bool) (db.Record, error) {
	found, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(withVector),
	})
	if err != nil {
		return db.Record{}, wrapErr(db.OpGet, err)
	}
	if len(found) == 0 {
		return db.Record{}, &db.Error{Op: db.OpGet, Err: db.ErrPointNotFound}
	}
	return toRecord(found[0].GetId(), found[0].GetPayload(), found[0].GetVectors(), db.OpGet)
}

// Delete removes points by caller ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs(ids)...),
	})
	if err != nil {
		return wrapErr(db.OpDelete, err)
	}
	return nil
}

// DeleteByFilter removes every point matching f.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, f filter.Expression) error {
	native := TranslateFilter(f)
	if native == nil {
		native = &qdrant.Filter{}
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(native),
	})
	if err != nil {
		return wrapErr(db.OpDelete, err)
	}
	return nil
}

// Count returns the exact number of points matching f.
func (s *Store) Count(ctx context.Context, collection string, f filter.Expression) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         TranslateFilter(f),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, wrapErr(db.OpCount, err)
	}
	return int(n), nil //nolint:gosec // counts fit in int
}

// SetPayload merges fields into the payload of one point.
func (s *Store) SetPayload(ctx context.Context, collection, id string, payload metadata.Metadata) error {
	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Payload:        toPayload(payload),
		PointsSelector: qdrant.NewPointsSelector(pointID(id)),
	})
	if err != nil {
		return wrapErr(db.OpSetPayload, err)
	}
	return nil
}

// Scroll returns up to q.Limit points matching the filters.
// Text matching runs in process as a case-insensitive substring test, paging
// through the filtered points until enough match or the collection is exhausted.
func (s *Store) Scroll(ctx context.Context, q *db.ScrollQuery) ([]db.Record, error) {
	if q.Limit <= 0 {
		return nil, &db.Error{Op: db.OpScroll, Err: fmt.Errorf("%w: limit must be positive", db.ErrInvalidArgument)}
	}
	native := TranslateFilter(q.Filters)

	records := make([]db.Record, 0, q.Limit)
	var offset *qdrant.PointId
	for {
		found, next, err := s.client.ScrollAndOffset(ctx, &qdrant.ScrollPoints{
			CollectionName: q.Collection,
			Filter:         native,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(q.Limit)), //nolint:gosec // bounded by caller
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(q.WithVector),
		})
		if err != nil {
			return nil, wrapErr(db.OpScroll, err)
		}
		for _, p := range found {
			r, err := toRecord(p.GetId(), p.GetPayload(), p.GetVectors(), db.OpScroll)
			if err != nil {
				return nil, err
			}
			if !q.MatchesText(r.Payload) {
				continue
			}
			records = append(records, r)
			if len(records) == q.Limit {
				return records, nil
			}
		}
		if !q.HasText() || next == nil || len(found) == 0 {
			return records, nil
		}
		offset = next
	}
}

func toRecord(id *qdrant.PointId, payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput, op string) (db.Record, error) {
	meta, err := fromPayload(payload)
	if err != nil {
		return db.Record{}, &db.Error{Op: op, Err: err}
	}
	return db.Record{
		ID:      recordID(id, payload),
		Vector:  denseVector(vectors),
		Payload: meta.Without(point.FieldVectorID),
	}, nil
}
