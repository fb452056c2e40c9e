package qdrant

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/qdrant/go-client/qdrant"

	"github.com/whokrish/vectorbeats/internal/db"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

var metricToDistance = map[domcol.Metric]qdrant.Distance{
	domcol.MetricCosine:    qdrant.Distance_Cosine,
	domcol.MetricEuclidean: qdrant.Distance_Euclid,
	domcol.MetricDot:       qdrant.Distance_Dot,
}

var distanceToMetric = map[qdrant.Distance]domcol.Metric{
	qdrant.Distance_Cosine: domcol.MetricCosine,
	qdrant.Distance_Euclid: domcol.MetricEuclidean,
	qdrant.Distance_Dot:    domcol.MetricDot,
}

var statusNames = map[qdrant.CollectionStatus]domcol.Status{
	qdrant.CollectionStatus_Green:  domcol.StatusGreen,
	qdrant.CollectionStatus_Yellow: domcol.StatusYellow,
	qdrant.CollectionStatus_Grey:   domcol.StatusGrey,
	qdrant.CollectionStatus_Red:    domcol.StatusRed,
}

// ListCollections returns collection names in sorted order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, wrapErr(db.OpListCollections, err)
	}
	sort.Strings(names)
	return names, nil
}

// CreateCollection creates a single unnamed dense vector collection.
func (s *Store) CreateCollection(ctx context.Context, schema domcol.Schema) error {
	distance, ok := metricToDistance[schema.Metric()]
	if !ok {
		return &db.Error{Op: db.OpCreateCollection, Err: fmt.Errorf("%w: metric %q", db.ErrInvalidArgument, schema.Metric())}
	}
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: schema.Name(),
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(schema.Dimension()), //nolint:gosec // validated positive
			Distance: distance,
		}),
	})
	if err != nil {
		return wrapErr(db.OpCreateCollection, err)
	}
	return nil
}

// CollectionInfo describes a collection.
func (s *Store) CollectionInfo(ctx context.Context, name string) (domcol.Info, error) {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return domcol.Info{}, wrapErr(db.OpCollectionInfo, err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return domcol.Info{}, &db.Error{
			Op:  db.OpCollectionInfo,
			Err: fmt.Errorf("%w: collection %q has no unnamed dense vector", db.ErrInvalidArgument, name),
		}
	}
	metric, ok := distanceToMetric[params.GetDistance()]
	if !ok {
		return domcol.Info{}, &db.Error{
			Op:  db.OpCollectionInfo,
			Err: fmt.Errorf("%w: unsupported distance %s", db.ErrInvalidArgument, params.GetDistance()),
		}
	}
	schema, err := domcol.NewSchema(name, int(params.GetSize()), metric) //nolint:gosec // bounded by MaxDimension
	if err != nil {
		return domcol.Info{}, &db.Error{Op: db.OpCollectionInfo, Err: err}
	}

	status, ok := statusNames[info.GetStatus()]
	if !ok {
		status = domcol.StatusUnknown
	}
	indexes := make([]string, 0, len(info.GetPayloadSchema()))
	for field := range info.GetPayloadSchema() {
		indexes = append(indexes, field)
	}
	sort.Strings(indexes)

	return domcol.Info{
		Schema:         schema,
		PointsCount:    int(info.GetPointsCount()),         //nolint:gosec // counts fit in int
		IndexedVectors: int(info.GetIndexedVectorsCount()), //nolint:gosec // counts fit in int
		Status:         status,
		PayloadIndexes: indexes,
	}, nil
}

// EnsurePayloadIndex creates a keyword payload index; an existing index is success.
func (s *Store) EnsurePayloadIndex(ctx context.Context, collection, field string) error {
	_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		FieldName:      field,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err == nil {
		return nil
	}
	wrapped := wrapErr(db.OpCreatePayloadIndex, err)
	if errors.Is(wrapped, db.ErrCollectionExists) {
		return nil
	}
	return wrapped
}
