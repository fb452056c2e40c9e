package redis

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

// ListCollections returns collection names in sorted order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	keys, err := s.scanKeys(ctx, metaKeyPrefix+"*")
	if err != nil {
		return nil, wrapErr(db.OpListCollections, err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, metaKeyPrefix))
	}
	sort.Strings(names)
	return names, nil
}

// CreateCollection creates the FT index and records the collection settings.
func (s *Store) CreateCollection(ctx context.Context, schema domcol.Schema) error {
	exists, err := s.do(ctx, s.b().Exists().Key(metaKey(schema.Name())).Build()).AsInt64()
	if err != nil {
		return wrapErr(db.OpCreateCollection, err)
	}
	if exists > 0 {
		return &db.Error{Op: db.OpCreateCollection, Err: db.ErrCollectionExists}
	}

	args, err := buildCreateArgs(schema, nil)
	if err != nil {
		return &db.Error{Op: db.OpCreateCollection, Err: err}
	}
	if err := s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error(); err != nil {
		return wrapErr(db.OpCreateCollection, err)
	}

	cmd := s.b().Hset().Key(metaKey(schema.Name())).FieldValue().
		FieldValue(metaDimension, strconv.Itoa(schema.Dimension())).
		FieldValue(metaMetric, string(schema.Metric())).
		FieldValue(metaIndexes, "").
		Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return wrapErr(db.OpCreateCollection, err)
	}
	return nil
}

// CollectionInfo returns the collection settings and its document count.
func (s *Store) CollectionInfo(ctx context.Context, name string) (domcol.Info, error) {
	meta, err := s.loadMeta(ctx, db.OpCollectionInfo, name)
	if err != nil {
		return domcol.Info{}, err
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(indexName(name)).Build()).ToArray()
	if err != nil {
		return domcol.Info{}, wrapErr(db.OpCollectionInfo, err)
	}
	docs := int(infoInt(raw, "num_docs"))

	return domcol.Info{
		Schema:         meta.schema,
		PointsCount:    docs,
		IndexedVectors: docs,
		Status:         domcol.StatusGreen,
		PayloadIndexes: meta.indexList(),
	}, nil
}

// EnsurePayloadIndex adds a TAG field to the collection index.
// A field that is already indexed is a success.
func (s *Store) EnsurePayloadIndex(ctx context.Context, collection, field string) error {
	meta, err := s.loadMeta(ctx, db.OpCreatePayloadIndex, collection)
	if err != nil {
		return err
	}
	if meta.indexed[field] {
		return nil
	}

	fieldArgs, err := buildFieldArgs(payloadField(field))
	if err != nil {
		return &db.Error{Op: db.OpCreatePayloadIndex, Err: err}
	}
	args := append([]string{indexName(collection), "SCHEMA", "ADD"}, fieldArgs...)
	if err := s.do(ctx, s.b().Arbitrary("FT.ALTER").Args(args...).Build()).Error(); err != nil {
		if !isRedisErr(err, "duplicate") && !isRedisErr(err, "already exists") {
			return wrapErr(db.OpCreatePayloadIndex, err)
		}
	}

	meta.indexed[field] = true
	cmd := s.b().Hset().Key(metaKey(collection)).FieldValue().
		FieldValue(metaIndexes, strings.Join(meta.indexList(), tagSeparator)).
		Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return wrapErr(db.OpCreatePayloadIndex, err)
	}
	return nil
}

// Snapshot is not available on Redis.
func (s *Store) Snapshot(_ context.Context, _ string) (db.Snapshot, error) {
	return db.Snapshot{}, &db.Error{Op: db.OpSnapshot, Err: db.ErrNotSupported}
}

// loadMeta reads the collection settings. Returns ErrCollectionNotFound when absent.
func (s *Store) loadMeta(ctx context.Context, op, name string) (collectionMeta, error) {
	h, err := s.do(ctx, s.b().Hgetall().Key(metaKey(name)).Build()).AsStrMap()
	if err != nil {
		return collectionMeta{}, wrapErr(op, err)
	}
	if len(h) == 0 {
		return collectionMeta{}, &db.Error{Op: op, Err: db.ErrCollectionNotFound}
	}
	meta, err := decodeMeta(name, h)
	if err != nil {
		return collectionMeta{}, &db.Error{Op: op, Err: err}
	}
	return meta, nil
}

// scanKeys iterates keys matching a pattern.
func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by callers
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// infoInt reads an integer attribute from a flat FT.INFO reply.
func infoInt(raw []rueidis.RedisMessage, name string) int64 {
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil || key != name {
			continue
		}
		if n, err := raw[i+1].AsInt64(); err == nil {
			return n
		}
		if f, err := raw[i+1].AsFloat64(); err == nil {
			return int64(f)
		}
	}
	return 0
}
