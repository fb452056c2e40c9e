// Package vector is the single entry point over the collection registry,
// the vector store and both search engines. It is constructed once at
// startup and shared by every transport.
package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/whokrish/vectorbeats/internal/domain"
	dombatch "github.com/whokrish/vectorbeats/internal/domain/batch"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/request"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
	"github.com/whokrish/vectorbeats/internal/usecase/collection"
	"github.com/whokrish/vectorbeats/internal/usecase/fusion"
	"github.com/whokrish/vectorbeats/internal/usecase/point"
)

// Multimodal metadata fields added by StoreMultimodal.
const (
	FieldModality      = "modality"
	FieldImageDim      = "image_dim"
	FieldAudioDim      = "audio_dim"
	ModalityImageAudio = "image_audio"
)

// Features lists the capabilities advertised by ServiceInfo.
var Features = []string{
	"similarity_search",
	"hybrid_search",
	"text_search",
	"batch_upsert",
	"filtering",
	"payload_indexes",
	"snapshots",
}

// Backend labels the engine for ServiceInfo.
type Backend struct {
	Kind    string
	Address string
}

// Service composes the vector operations.
type Service struct {
	registry Registry
	points   Points
	search   Searcher
	fusion   Fuser
	engine   Engine
	roles    fusion.Roles
	backend  Backend
}

// New creates the vector service.
func New(
	registry Registry, points Points, search Searcher, fuser Fuser,
	engine Engine, roles fusion.Roles, backend Backend,
) *Service {
	return &Service{
		registry: registry,
		points:   points,
		search:   search,
		fusion:   fuser,
		engine:   engine,
		roles:    roles,
		backend:  backend,
	}
}

// Roles returns which collection serves each modality.
func (s *Service) Roles() fusion.Roles { return s.roles }

// EnsureCollections creates every configured collection and its payload indexes.
func (s *Service) EnsureCollections(ctx context.Context) error {
	if err := s.registry.EnsureAll(ctx); err != nil {
		return fmt.Errorf("ensure collections: %w", err)
	}
	return nil
}

// Store validates and upserts one point. Returns the point id.
func (s *Service) Store(ctx context.Context, collection string, item point.Item) (string, error) {
	return s.points.Put(ctx, collection, item) //nolint:wrapcheck // point service errors carry the collection
}

// StoreBatch upserts items in chunks. Invalid items are skipped and reported per item.
func (s *Service) StoreBatch(ctx context.Context, collection string, items []point.Item) ([]dombatch.Result, error) {
	return s.points.PutBatch(ctx, collection, items) //nolint:wrapcheck // point service errors carry the collection
}

// StoreMultimodal stores image ++ audio in the joint collection.
func (s *Service) StoreMultimodal(
	ctx context.Context, id string, image, audio []float32, meta metadata.Metadata,
) (string, error) {
	if len(image) == 0 || len(audio) == 0 {
		return "", fmt.Errorf("image and audio vectors are required: %w", domain.ErrInvalidRequest)
	}

	joint := make([]float32, 0, len(image)+len(audio))
	joint = append(joint, image...)
	joint = append(joint, audio...)

	meta = meta.
		With(FieldModality, metadata.String(ModalityImageAudio)).
		With(FieldImageDim, metadata.Int(int64(len(image)))).
		With(FieldAudioDim, metadata.Int(int64(len(audio))))

	return s.points.Put(ctx, s.roles.Joint, point.Item{ID: id, Vector: joint, Metadata: meta}) //nolint:wrapcheck // see Store
}

// Search runs one similarity search.
func (s *Service) Search(ctx context.Context, req *request.Similarity) ([]result.Candidate, error) {
	return s.search.Search(ctx, req) //nolint:wrapcheck // search errors carry the collection
}

// HybridSearch fuses image, audio and text searches into one ranking.
func (s *Service) HybridSearch(ctx context.Context, req *request.Hybrid) ([]result.Fused, error) {
	return s.fusion.Fuse(ctx, req) //nolint:wrapcheck // fusion errors carry the modality
}

// Get returns one point.
func (s *Service) Get(ctx context.Context, collection, id string, withVector bool) (dompoint.Point, error) {
	return s.points.Get(ctx, collection, id, withVector) //nolint:wrapcheck // see Store
}

// Delete removes one point.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	return s.points.Delete(ctx, collection, id) //nolint:wrapcheck // see Store
}

// DeleteByFilter removes every point matching f and returns how many there were.
func (s *Service) DeleteByFilter(ctx context.Context, collection string, f filter.Expression) (int, error) {
	return s.points.DeleteByFilter(ctx, collection, f) //nolint:wrapcheck // see Store
}

// Count counts the points matching f. An empty filter counts the whole collection.
func (s *Service) Count(ctx context.Context, collection string, f filter.Expression) (int, error) {
	return s.points.Count(ctx, collection, f) //nolint:wrapcheck // see Store
}

// UpdateMetadata merges fields into a point's metadata.
func (s *Service) UpdateMetadata(ctx context.Context, collection, id string, fields metadata.Metadata) error {
	return s.points.UpdateMetadata(ctx, collection, id, fields) //nolint:wrapcheck // see Store
}

// CollectionInfo describes one collection.
func (s *Service) CollectionInfo(ctx context.Context, name string) (domcol.Info, error) {
	return s.registry.Describe(ctx, name) //nolint:wrapcheck // registry errors carry the collection
}

// AllCollectionsInfo describes every configured collection.
func (s *Service) AllCollectionsInfo(ctx context.Context) []collection.Description {
	return s.registry.DescribeAll(ctx)
}

// Snapshot creates a backend snapshot of a collection.
func (s *Service) Snapshot(ctx context.Context, name string) (domcol.Snapshot, error) {
	return s.registry.Snapshot(ctx, name) //nolint:wrapcheck // see CollectionInfo
}

// CheckCollections reports every configured collection that cannot be described.
func (s *Service) CheckCollections(ctx context.Context) error {
	var errs []error
	for _, d := range s.registry.DescribeAll(ctx) {
		if d.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name, d.Err))
		}
	}
	return errors.Join(errs...)
}

// ServiceInfo is a snapshot of the running service configuration and backend state.
type ServiceInfo struct {
	Backend     Backend
	Version     string
	Connected   bool
	Collections []collection.Description
	Roles       fusion.Roles
	Features    []string
}

// Info reports backend connectivity and the configured collections.
// Collection details are only gathered while the backend is reachable.
func (s *Service) Info(ctx context.Context) ServiceInfo {
	info := ServiceInfo{
		Backend:  s.backend,
		Roles:    s.roles,
		Features: Features,
	}
	if err := s.engine.Ping(ctx); err != nil {
		return info
	}
	info.Connected = true
	if v, err := s.engine.Version(ctx); err == nil {
		info.Version = v
	}
	info.Collections = s.registry.DescribeAll(ctx)
	return info
}
