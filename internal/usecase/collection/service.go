package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/whokrish/vectorbeats/internal/domain"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

// ensureConcurrency bounds parallel ensure calls at startup.
const ensureConcurrency = 4

// Definition is one statically configured collection.
type Definition struct {
	Schema         domcol.Schema
	PayloadIndexes []string
}

// Description is the outcome of describing one configured collection.
type Description struct {
	Name string
	Info domcol.Info
	Err  error
}

// Service is the collection registry: it ensures configured collections exist
// and serves their schema to the rest of the service.
type Service struct {
	repo   Repository
	defs   []Definition
	logger *zap.Logger

	mu    sync.RWMutex
	known map[string]domcol.Schema
}

// New creates a collection registry over the given static definitions.
func New(repo Repository, defs ...Definition) *Service {
	return &Service{
		repo:   repo,
		defs:   defs,
		logger: zap.NewNop(),
		known:  make(map[string]domcol.Schema, len(defs)),
	}
}

// WithLogger sets the logger used for startup reporting.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// Definitions returns the configured collections in configuration order.
func (s *Service) Definitions() []Definition {
	return s.defs
}

// Ensure creates the collection if absent and its payload indexes.
// An existing collection with a different dimension or metric is a schema conflict.
func (s *Service) Ensure(ctx context.Context, schema domcol.Schema, indexes ...string) error {
	name := schema.Name()

	info, err := s.repo.Info(ctx, name)
	switch {
	case err == nil:
		if err := checkShape(schema, info.Schema); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrUnknownCollection):
		created, err := s.repo.Create(ctx, schema)
		if err != nil {
			return fmt.Errorf("ensure collection: %w", err)
		}
		if !created {
			// Lost a creation race; the winner's schema must still match.
			info, err := s.repo.Info(ctx, name)
			if err != nil {
				return fmt.Errorf("ensure collection: %w", err)
			}
			if err := checkShape(schema, info.Schema); err != nil {
				return err
			}
		} else {
			s.logger.Info("Collection created",
				zap.String("collection", name),
				zap.Int("dimension", schema.Dimension()),
				zap.String("metric", string(schema.Metric())),
			)
		}
	default:
		return fmt.Errorf("ensure collection: %w", err)
	}

	if len(indexes) > 0 {
		if err := s.repo.EnsureIndexes(ctx, name, indexes); err != nil {
			return fmt.Errorf("ensure payload indexes: %w", err)
		}
	}

	s.remember(schema)
	return nil
}

// EnsureAll ensures every configured collection. The first failure cancels the rest.
func (s *Service) EnsureAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ensureConcurrency)
	for _, d := range s.defs {
		g.Go(func() error {
			return s.Ensure(gctx, d.Schema, d.PayloadIndexes...)
		})
	}
	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // Ensure errors carry their own context
	}
	return nil
}

// Describe returns the live state of a collection. Returns domain.ErrUnknownCollection when absent.
func (s *Service) Describe(ctx context.Context, name string) (domcol.Info, error) {
	info, err := s.repo.Info(ctx, name)
	if err != nil {
		return domcol.Info{}, fmt.Errorf("describe collection: %w", err)
	}
	s.remember(info.Schema)
	return info, nil
}

// DescribeAll describes every configured collection. A failed lookup is
// reported in its Description rather than failing the whole call.
func (s *Service) DescribeAll(ctx context.Context) []Description {
	out := make([]Description, len(s.defs))
	for i, d := range s.defs {
		name := d.Schema.Name()
		info, err := s.Describe(ctx, name)
		out[i] = Description{Name: name, Info: info, Err: err}
	}
	return out
}

// Schema returns the schema of a collection, consulting the backend on a cache miss.
func (s *Service) Schema(ctx context.Context, name string) (domcol.Schema, error) {
	s.mu.RLock()
	schema, ok := s.known[name]
	s.mu.RUnlock()
	if ok {
		return schema, nil
	}

	info, err := s.Describe(ctx, name)
	if err != nil {
		return domcol.Schema{}, err
	}
	return info.Schema, nil
}

// List returns the names of all collections in the backend.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

// Snapshot asks the backend for a snapshot of a known collection.
func (s *Service) Snapshot(ctx context.Context, name string) (domcol.Snapshot, error) {
	if _, err := s.Schema(ctx, name); err != nil {
		return domcol.Snapshot{}, err
	}
	snap, err := s.repo.Snapshot(ctx, name)
	if err != nil {
		return domcol.Snapshot{}, fmt.Errorf("snapshot collection: %w", err)
	}
	return snap, nil
}

func (s *Service) remember(schema domcol.Schema) {
	s.mu.Lock()
	s.known[schema.Name()] = schema
	s.mu.Unlock()
}

func checkShape(want, have domcol.Schema) error {
	if want.SameShape(have) {
		return nil
	}
	return domain.NewSchemaConflict(want.Name(), want.Shape(), have.Shape())
}
