package fusion

import (
	"context"

	dompoint "github.com/whokrish/vectorbeats/internal/domain/point"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	"github.com/whokrish/vectorbeats/internal/domain/search/request"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
)

// Searcher runs one single-collection similarity search.
type Searcher interface {
	Search(ctx context.Context, req *request.Similarity) ([]result.Candidate, error)
}

// TextScanner returns catalog points whose text fields contain a phrase.
type TextScanner interface {
	ScanText(
		ctx context.Context, collection, phrase string, fields []string,
		filters filter.Expression, limit int,
	) ([]dompoint.Point, error)
}

// Roles names the collection that serves each modality.
type Roles struct {
	Catalog string // text scan
	Image   string
	Audio   string
	Joint   string // concatenated image ++ audio vectors
}
