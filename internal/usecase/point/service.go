package point

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whokrish/vectorbeats/internal/domain"
	dombatch "github.com/whokrish/vectorbeats/internal/domain/batch"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/metrics"
)

// DefaultChunkSize is the number of points sent to the backend per upsert call.
const DefaultChunkSize = 100

// Item is one point submitted for storage. An empty ID is generated.
type Item struct {
	ID       string
	Vector   []float32
	Metadata metadata.Metadata
}

// Service is the validated vector store over one backend.
type Service struct {
	repo      Repository
	schemas   SchemaResolver
	logger    *zap.Logger
	chunkSize int
	now       func() time.Time
}

// New creates a point service.
func New(repo Repository, schemas SchemaResolver) *Service {
	return &Service{
		repo:      repo,
		schemas:   schemas,
		logger:    zap.NewNop(),
		chunkSize: DefaultChunkSize,
		now:       time.Now,
	}
}

// WithLogger sets the logger used to report skipped batch items.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithChunkSize configures the batch chunk size.
func (s *Service) WithChunkSize(size int) *Service {
	if size > 0 {
		s.chunkSize = size
	}
	return s
}

// WithClock overrides the timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Put validates and stores one point, returning its ID.
func (s *Service) Put(ctx context.Context, collection string, item Item) (string, error) {
	schema, err := s.schemas.Schema(ctx, collection)
	if err != nil {
		return "", err //nolint:wrapcheck // registry errors carry the collection name
	}
	p, err := s.prepare(schema, item)
	if err != nil {
		metrics.PointsWrittenTotal.WithLabelValues(collection, "rejected").Inc()
		return "", err
	}
	if err := s.repo.Upsert(ctx, collection, []dompoint.Point{p}); err != nil {
		return "", fmt.Errorf("store point: %w", err)
	}
	metrics.PointsWrittenTotal.WithLabelValues(collection, "accepted").Inc()
	return p.ID(), nil
}

// PutBatch stores items in chunks. Invalid items are skipped and reported
// in their result without affecting siblings. Results follow input order.
// On a backend failure the results of the chunks already written are returned with the error.
func (s *Service) PutBatch(ctx context.Context, collection string, items []Item) ([]dombatch.Result, error) {
	schema, err := s.schemas.Schema(ctx, collection)
	if err != nil {
		return nil, err //nolint:wrapcheck // registry errors carry the collection name
	}

	results := make([]dombatch.Result, 0, len(items))
	for start := 0; start < len(items); start += s.chunkSize {
		end := min(start+s.chunkSize, len(items))
		chunk, err := s.putChunk(ctx, schema, items[start:end], start)
		if err != nil {
			return results, err
		}
		results = append(results, chunk...)
	}
	return results, nil
}

func (s *Service) putChunk(
	ctx context.Context, schema domcol.Schema, items []Item, offset int,
) ([]dombatch.Result, error) {
	collection := schema.Name()
	results := make([]dombatch.Result, len(items))
	valid := make([]dompoint.Point, 0, len(items))
	validIdx := make([]int, 0, len(items))

	for i, item := range items {
		p, err := s.prepare(schema, item)
		if err != nil {
			s.logger.Warn("Batch item skipped",
				zap.String("collection", collection),
				zap.Int("index", offset+i),
				zap.String("id", item.ID),
				zap.Error(err),
			)
			metrics.PointsWrittenTotal.WithLabelValues(collection, "rejected").Inc()
			results[i] = dombatch.NewError(offset+i, item.ID, err)
			continue
		}
		valid = append(valid, p)
		validIdx = append(validIdx, i)
	}

	if len(valid) > 0 {
		if err := s.repo.Upsert(ctx, collection, valid); err != nil {
			return nil, fmt.Errorf("store batch chunk at %d: %w", offset, err)
		}
	}
	for j, i := range validIdx {
		results[i] = dombatch.NewOK(offset+i, valid[j].ID())
	}
	metrics.PointsWrittenTotal.WithLabelValues(collection, "accepted").Add(float64(len(valid)))
	return results, nil
}

// prepare validates an item against the collection schema and stamps it.
func (s *Service) prepare(schema domcol.Schema, item Item) (dompoint.Point, error) {
	if len(item.Vector) == 0 {
		return dompoint.Point{}, fmt.Errorf("%w: vector is empty", domain.ErrInvalidRequest)
	}
	if len(item.Vector) != schema.Dimension() {
		return dompoint.Point{}, domain.NewDimensionMismatch(schema.Name(), schema.Dimension(), len(item.Vector))
	}
	p, err := dompoint.New(item.ID, item.Vector, item.Metadata)
	if err != nil {
		return dompoint.Point{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if p.ID() == "" {
		p = p.WithID(uuid.NewString())
	}
	return p.Stamped(s.now()), nil
}

// Get returns a point. Returns domain.ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, collection, id string, withVector bool) (dompoint.Point, error) {
	if _, err := s.schemas.Schema(ctx, collection); err != nil {
		return dompoint.Point{}, err //nolint:wrapcheck // registry errors carry the collection name
	}
	p, err := s.repo.Get(ctx, collection, id, withVector)
	if err != nil {
		return dompoint.Point{}, fmt.Errorf("get point: %w", err)
	}
	return p, nil
}

// Delete removes a point. Returns domain.ErrNotFound when absent.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.Get(ctx, collection, id, false); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete point: %w", err)
	}
	return nil
}

// DeleteByFilter removes all points matching f and returns how many matched.
// An empty filter matches every point in the collection.
func (s *Service) DeleteByFilter(ctx context.Context, collection string, f filter.Expression) (int, error) {
	n, err := s.Count(ctx, collection, f)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.repo.DeleteByFilter(ctx, collection, f); err != nil {
		return 0, fmt.Errorf("delete by filter: %w", err)
	}
	return n, nil
}

// Count returns the number of points matching f; an empty filter counts all points.
func (s *Service) Count(ctx context.Context, collection string, f filter.Expression) (int, error) {
	if _, err := s.schemas.Schema(ctx, collection); err != nil {
		return 0, err //nolint:wrapcheck // registry errors carry the collection name
	}
	n, err := s.repo.Count(ctx, collection, f)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return n, nil
}

// UpdateMetadata merges fields into a point's metadata and stamps updated_at.
func (s *Service) UpdateMetadata(ctx context.Context, collection, id string, fields metadata.Metadata) error {
	if _, err := s.Get(ctx, collection, id, false); err != nil {
		return err
	}
	patch := fields.
		Without(dompoint.FieldCreatedAt, dompoint.FieldVectorID).
		With(dompoint.FieldUpdatedAt, metadata.String(s.now().UTC().Format(time.RFC3339Nano)))
	if err := s.repo.SetPayload(ctx, collection, id, patch); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}
