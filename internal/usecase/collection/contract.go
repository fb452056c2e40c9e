package collection

import (
	"context"

	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
)

// Repository defines the storage contract for collections.
type Repository interface {
	List(ctx context.Context) ([]string, error)
	Info(ctx context.Context, name string) (domcol.Info, error)
	// Create reports false when the name was already taken.
	Create(ctx context.Context, schema domcol.Schema) (bool, error)
	EnsureIndexes(ctx context.Context, name string, fields []string) error
	Snapshot(ctx context.Context, name string) (domcol.Snapshot, error)
}
