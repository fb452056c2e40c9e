package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/whokrish/vectorbeats/internal/db"
)

// wrapErr maps rueidis errors onto db sentinels.
// Server replies are request errors; anything else is a transport failure.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &db.Error{Op: op, Err: err}
	}

	switch {
	case isRedisErr(err, "unknown index name"), isRedisErr(err, "no such index"):
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrCollectionNotFound, err)}
	case isRedisErr(err, "index already exists"):
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrCollectionExists, err)}
	}
	if _, ok := rueidis.IsRedisErr(err); ok {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrInvalidArgument, err)}
	}
	return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
}
