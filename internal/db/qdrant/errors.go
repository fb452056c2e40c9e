package qdrant

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/whokrish/vectorbeats/internal/db"
)

// wrapErr maps gRPC status codes onto db sentinels and tags the operation.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &db.Error{Op: op, Err: err}
	}

	var sentinel error
	switch status.Code(err) {
	case codes.NotFound:
		sentinel = db.ErrCollectionNotFound
	case codes.AlreadyExists:
		sentinel = db.ErrCollectionExists
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		sentinel = db.ErrUnavailable
	case codes.InvalidArgument:
		if isMissingCollection(err) {
			sentinel = db.ErrCollectionNotFound
		} else if isAlreadyExists(err) {
			sentinel = db.ErrCollectionExists
		} else {
			sentinel = db.ErrInvalidArgument
		}
	case codes.Canceled:
		sentinel = context.Canceled
	}
	if sentinel == nil {
		return &db.Error{Op: op, Err: err}
	}
	return &db.Error{Op: op, Err: &codeError{sentinel: sentinel, cause: err}}
}

// codeError keeps the native message while matching the sentinel.
type codeError struct {
	sentinel error
	cause    error
}

func (e *codeError) Error() string { return e.sentinel.Error() + ": " + e.cause.Error() }

func (e *codeError) Is(target error) bool { return target == e.sentinel }

func (e *codeError) Unwrap() error { return e.cause }

// qdrant reports some lookups on missing collections as InvalidArgument.
func isMissingCollection(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "doesn't exist")
}

func isAlreadyExists(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
