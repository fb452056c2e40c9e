// Package repository holds the domain-facing adapters over the vector engine.
package repository

import (
	"errors"
	"fmt"

	"github.com/whokrish/vectorbeats/internal/db"
	"github.com/whokrish/vectorbeats/internal/domain"
)

// MapError translates engine errors into domain errors.
// The engine error stays in the chain; unknown errors pass through unchanged.
func MapError(err error) error {
	var target error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrCollectionNotFound):
		target = domain.ErrUnknownCollection
	case errors.Is(err, db.ErrPointNotFound):
		target = domain.ErrNotFound
	case errors.Is(err, db.ErrUnavailable):
		target = domain.ErrBackendUnavailable
	case errors.Is(err, db.ErrNotSupported):
		target = domain.ErrNotImplemented
	case errors.Is(err, db.ErrInvalidArgument):
		target = domain.ErrInvalidRequest
	default:
		return err
	}
	return fmt.Errorf("%w: %w", target, err)
}
