package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/whokrish/vectorbeats/internal/db"
	"github.com/whokrish/vectorbeats/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"collection", &db.Error{Op: db.OpQuery, Err: db.ErrCollectionNotFound}, domain.ErrUnknownCollection},
		{"point", &db.Error{Op: db.OpGet, Err: db.ErrPointNotFound}, domain.ErrNotFound},
		{"unavailable", &db.Error{Op: db.OpPing, Err: db.ErrUnavailable}, domain.ErrBackendUnavailable},
		{"unsupported", db.ErrNotSupported, domain.ErrNotImplemented},
		{"invalid", db.ErrInvalidArgument, domain.ErrInvalidRequest},
		{"context", &db.Error{Op: db.OpQuery, Err: context.Canceled}, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.in)
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError() = %v, want %v", got, tt.want)
			}
			if !errors.Is(got, tt.in) {
				t.Error("engine error dropped from the chain")
			}
		})
	}
	if MapError(nil) != nil {
		t.Error("MapError(nil) != nil")
	}
}
