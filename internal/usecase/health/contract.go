package health

import "context"

// DBPinger checks vector backend availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CollectionChecker checks that every configured collection is reachable.
type CollectionChecker interface {
	CheckCollections(ctx context.Context) error
}
