package qdrant

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/whokrish/vectorbeats/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultPort is the qdrant gRPC port.
const DefaultPort = 6334

// Config holds connection parameters for a qdrant store.
type Config struct {
	Host     string
	Port     int
	APIKey   string
	UseTLS   bool
	PoolSize uint
	// CheckCompatibility enables the client/server version check on connect.
	CheckCompatibility bool
}

// client is the subset of *qdrant.Client the store uses.
type client interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	SetPayload(ctx context.Context, request *qdrant.SetPayloadPoints) (*qdrant.UpdateResult, error)
	ScrollAndOffset(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, *qdrant.PointId, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	CreateSnapshot(ctx context.Context, collection string) (*qdrant.SnapshotDescription, error)
	Close() error
}

// Store implements db.Store via the qdrant gRPC client.
type Store struct {
	client  client
	address string
}

// NewStore creates a qdrant store. The connection is lazy; use WaitForReady.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		PoolSize:               cfg.PoolSize,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: c, address: net.JoinHostPort(cfg.Host, strconv.Itoa(port))}, nil
}

// Backend identifies the engine.
func (s *Store) Backend() db.Backend {
	return db.Backend{Kind: "qdrant", Address: s.address}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return wrapErr(db.OpPing, err)
	}
	return nil
}

// Version returns the server version reported by the health endpoint.
func (s *Store) Version(ctx context.Context) (string, error) {
	reply, err := s.client.HealthCheck(ctx)
	if err != nil {
		return "", wrapErr(db.OpPing, err)
	}
	return reply.GetVersion(), nil
}

// Close shuts down the client.
func (s *Store) Close() {
	_ = s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for qdrant: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
