package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Store with the provided client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c, kind: "redis", addrs: []string{"test:6379"}}
}
