package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/rueidis"

	"github.com/whokrish/vectorbeats/internal/db"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
)

// Upsert replaces the given points in a single DoMulti round-trip.
func (s *Store) Upsert(ctx context.Context, collection string, records []db.Record) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := s.loadMeta(ctx, db.OpUpsert, collection); err != nil {
		return err
	}

	cmds := make(rueidis.Commands, 0, 2*len(records))
	for _, r := range records {
		fields, err := encodeRecord(r)
		if err != nil {
			return &db.Error{Op: db.OpUpsert, Err: err}
		}
		key := pointKey(collection, r.ID)
		hset := s.b().Hset().Key(key).FieldValue()
		for k, v := range fields {
			hset = hset.FieldValue(k, v)
		}
		// DEL first so tag fields of removed payload keys do not linger.
		cmds = append(cmds, s.b().Del().Key(key).Build(), hset.Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return wrapErr(db.OpUpsert, fmt.Errorf("point %s: %w", records[i/2].ID, err))
		}
	}
	return nil
}

// Get returns one point. Returns ErrPointNotFound when absent.
func (s *Store) Get(ctx context.Context, collection, id string, withVector bool) (db.Record, error) {
	if _, err := s.loadMeta(ctx, db.OpGet, collection); err != nil {
		return db.Record{}, err
	}

	h, err := s.do(ctx, s.b().Hgetall().Key(pointKey(collection, id)).Build()).AsStrMap()
	if err != nil {
		return db.Record{}, wrapErr(db.OpGet, err)
	}
	if len(h) == 0 {
		return db.Record{}, &db.Error{Op: db.OpGet, Err: db.ErrPointNotFound}
	}

	rec, err := decodeRecord(h, withVector)
	if err != nil {
		return db.Record{}, &db.Error{Op: db.OpGet, Err: err}
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// Delete removes points by id. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.loadMeta(ctx, db.OpDelete, collection); err != nil {
		return err
	}
	return s.del(ctx, collection, ids)
}

// DeleteByFilter removes every point matching f. An empty filter removes all points.
func (s *Store) DeleteByFilter(ctx context.Context, collection string, f filter.Expression) error {
	meta, err := s.loadMeta(ctx, db.OpDelete, collection)
	if err != nil {
		return err
	}
	recs, err := s.scan(ctx, db.OpDelete, collection, meta, f, nil, 0, false)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return s.del(ctx, collection, ids)
}

// del issues one DEL per key so keys may live in different cluster slots.
func (s *Store) del(ctx context.Context, collection string, ids []string) error {
	cmds := make(rueidis.Commands, len(ids))
	for i, id := range ids {
		cmds[i] = s.b().Del().Key(pointKey(collection, id)).Build()
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return wrapErr(db.OpDelete, fmt.Errorf("point %s: %w", ids[i], err))
		}
	}
	return nil
}

// Count counts points matching f. Filters fully served by TAG indexes are
// counted by the engine; otherwise matching points are scanned.
func (s *Store) Count(ctx context.Context, collection string, f filter.Expression) (int, error) {
	meta, err := s.loadMeta(ctx, db.OpCount, collection)
	if err != nil {
		return 0, err
	}
	prefilter, residual := splitFilter(f, meta.indexed)
	if residual.IsEmpty() {
		return s.countQuery(ctx, collection, groupQuery(prefilter))
	}
	recs, err := s.scan(ctx, db.OpCount, collection, meta, f, nil, 0, false)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// SetPayload merges payload into the stored payload of one point.
func (s *Store) SetPayload(ctx context.Context, collection, id string, payload metadata.Metadata) error {
	if _, err := s.loadMeta(ctx, db.OpSetPayload, collection); err != nil {
		return err
	}

	key := pointKey(collection, id)
	raw, err := s.do(ctx, s.b().Hget().Key(key).Field(fieldPayload).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return &db.Error{Op: db.OpSetPayload, Err: db.ErrPointNotFound}
		}
		return wrapErr(db.OpSetPayload, err)
	}

	var current metadata.Metadata
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return &db.Error{Op: db.OpSetPayload, Err: fmt.Errorf("decode payload of %s: %w", id, err)}
		}
	}
	merged := current.Clone()
	if merged == nil {
		merged = make(metadata.Metadata, len(payload))
	}
	for k, v := range payload {
		merged[k] = v
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return &db.Error{Op: db.OpSetPayload, Err: err}
	}

	hset := s.b().Hset().Key(key).FieldValue().FieldValue(fieldPayload, string(encoded))
	var stale []string
	for k, v := range payload {
		if tag, ok := tagValue(v); ok {
			hset = hset.FieldValue(tagPrefix+k, tag)
		} else {
			stale = append(stale, tagPrefix+k)
		}
	}
	if err := s.do(ctx, hset.Build()).Error(); err != nil {
		return wrapErr(db.OpSetPayload, err)
	}
	// A value that can no longer be mirrored must not keep matching its old tag.
	if len(stale) > 0 {
		sort.Strings(stale)
		if err := s.do(ctx, s.b().Hdel().Key(key).Field(stale...).Build()).Error(); err != nil {
			return wrapErr(db.OpSetPayload, err)
		}
	}
	return nil
}

// Scroll returns up to q.Limit points matching the filters.
// Text matching is a case-insensitive substring test over q.TextFields.
func (s *Store) Scroll(ctx context.Context, q *db.ScrollQuery) ([]db.Record, error) {
	if q.Limit <= 0 {
		return nil, &db.Error{Op: db.OpScroll, Err: fmt.Errorf("%w: limit must be positive", db.ErrInvalidArgument)}
	}
	meta, err := s.loadMeta(ctx, db.OpScroll, q.Collection)
	if err != nil {
		return nil, err
	}

	var match func(metadata.Metadata) bool
	if q.HasText() {
		match = q.MatchesText
	}
	return s.scan(ctx, db.OpScroll, q.Collection, meta, q.Filters, match, q.Limit, q.WithVector)
}
