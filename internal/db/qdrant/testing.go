package qdrant

// NewStoreForTest creates a Store with the provided client (test-only).
func NewStoreForTest(c client) *Store {
	return &Store{client: c, address: "test:6334"}
}
