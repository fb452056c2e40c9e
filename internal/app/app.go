// Package app wires configuration into a running set of services.
// It is shared by the API server and the operator CLI.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/whokrish/vectorbeats/internal/config"
	"github.com/whokrish/vectorbeats/internal/db"
	dbQdrant "github.com/whokrish/vectorbeats/internal/db/qdrant"
	dbRedis "github.com/whokrish/vectorbeats/internal/db/redis"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	collectionrepo "github.com/whokrish/vectorbeats/internal/repository/collection"
	pointrepo "github.com/whokrish/vectorbeats/internal/repository/point"
	searchrepo "github.com/whokrish/vectorbeats/internal/repository/search"
	collectionuc "github.com/whokrish/vectorbeats/internal/usecase/collection"
	"github.com/whokrish/vectorbeats/internal/usecase/fusion"
	healthuc "github.com/whokrish/vectorbeats/internal/usecase/health"
	pointuc "github.com/whokrish/vectorbeats/internal/usecase/point"
	searchuc "github.com/whokrish/vectorbeats/internal/usecase/search"
	vectoruc "github.com/whokrish/vectorbeats/internal/usecase/vector"
)

// App holds the composed services.
type App struct {
	Store    db.Store
	Registry *collectionuc.Service
	Vectors  *vectoruc.Service
	Health   *healthuc.Service
}

// OpenStore creates the vector engine client selected by cfg.Driver.
// The connection is lazy; callers should WaitForReady.
func OpenStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverQdrant:
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			Host:     cfg.Qdrant.Host,
			Port:     cfg.Qdrant.Port,
			APIKey:   cfg.Qdrant.APIKey,
			UseTLS:   cfg.Qdrant.UseTLS,
			PoolSize: cfg.Qdrant.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant store: %w", err)
		}
		return s, nil
	case config.DriverRedis, config.DriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Kind:     cfg.Driver,
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("%s store: %w", cfg.Driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Definitions converts configured collections into registry definitions.
func Definitions(cols []config.CollectionConfig) ([]collectionuc.Definition, error) {
	defs := make([]collectionuc.Definition, 0, len(cols))
	for _, c := range cols {
		metric, err := domcol.ParseMetric(c.Metric)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.Name, err)
		}
		schema, err := domcol.NewSchema(c.Name, c.Dimension, metric)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.Name, err)
		}
		defs = append(defs, collectionuc.Definition{Schema: schema, PayloadIndexes: c.PayloadIndexes})
	}
	return defs, nil
}

// Roles converts the configured modality roles.
func Roles(r config.RolesConfig) fusion.Roles {
	return fusion.Roles{Catalog: r.Catalog, Image: r.Image, Audio: r.Audio, Joint: r.Joint}
}

// New composes repositories and use cases over store.
func New(cfg *config.Config, store db.Store, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defs, err := Definitions(cfg.Collections)
	if err != nil {
		return nil, err
	}
	roles := Roles(cfg.Roles)

	collRepo := collectionrepo.New(store)
	pointRepo := pointrepo.New(store)
	searchRepo := searchrepo.New(store)

	registry := collectionuc.New(collRepo, defs...).WithLogger(logger)
	points := pointuc.New(pointRepo, registry).
		WithLogger(logger).
		WithChunkSize(cfg.Search.BatchChunkSize)
	search := searchuc.New(searchRepo, registry)
	fuser := fusion.New(search, searchRepo, roles).
		WithLogger(logger).
		WithJointWeight(cfg.Search.JointWeight).
		WithModalityTimeout(cfg.Search.ModalityTimeout()).
		WithTextScanPage(cfg.Search.TextScanPage).
		WithThreshold(cfg.Search.DefaultThreshold)

	backend := store.Backend()
	vectors := vectoruc.New(registry, points, search, fuser, store, roles,
		vectoruc.Backend{Kind: backend.Kind, Address: backend.Address})

	return &App{
		Store:    store,
		Registry: registry,
		Vectors:  vectors,
		Health:   healthuc.New(store, vectors),
	}, nil
}
