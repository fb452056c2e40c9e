package db

import "errors"

// Sentinel errors for engine operations.
var (
	ErrCollectionNotFound = errors.New("db: collection not found")
	ErrCollectionExists   = errors.New("db: collection already exists")
	ErrPointNotFound      = errors.New("db: point not found")
	ErrUnavailable        = errors.New("db: engine unavailable")
	ErrNotSupported       = errors.New("db: operation not supported by engine")
	ErrInvalidArgument    = errors.New("db: invalid argument")
)

// Op constants name engine operations for error context.
const (
	OpPing               = "ping"
	OpListCollections    = "list_collections"
	OpCreateCollection   = "create_collection"
	OpCollectionInfo     = "collection_info"
	OpCreatePayloadIndex = "create_payload_index"
	OpUpsert             = "upsert"
	OpGet                = "get"
	OpDelete             = "delete"
	OpCount              = "count"
	OpSetPayload         = "set_payload"
	OpScroll             = "scroll"
	OpQuery              = "query"
	OpSnapshot           = "snapshot"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
