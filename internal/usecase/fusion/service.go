// Package fusion merges independent per-modality searches into one ranked list.
package fusion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/whokrish/vectorbeats/internal/domain"
	"github.com/whokrish/vectorbeats/internal/domain/search/modality"
	"github.com/whokrish/vectorbeats/internal/domain/search/relevance"
	"github.com/whokrish/vectorbeats/internal/domain/search/request"
	"github.com/whokrish/vectorbeats/internal/domain/search/result"
	"github.com/whokrish/vectorbeats/internal/metrics"
)

const (
	// DefaultModalityTimeout bounds each modality search independently.
	DefaultModalityTimeout = 2 * time.Second
	// DefaultTextScanPage is the number of catalog points scored per text query.
	DefaultTextScanPage = 50
	// overfetch widens single-modality searches before merging.
	overfetch = 2
)

// Service is the hybrid search engine.
type Service struct {
	search      Searcher
	text        TextScanner
	roles       Roles
	logger      *zap.Logger
	jointWeight float64
	timeout     time.Duration
	textPage    int
	threshold   float64
}

// New creates a fusion service.
func New(search Searcher, text TextScanner, roles Roles) *Service {
	return &Service{
		search:      search,
		text:        text,
		roles:       roles,
		logger:      zap.NewNop(),
		jointWeight: modality.JointWeight,
		timeout:     DefaultModalityTimeout,
		textPage:    DefaultTextScanPage,
		threshold:   request.DefaultThreshold,
	}
}

// WithLogger sets the logger used to report degraded modalities.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithJointWeight overrides the weight of the joint image+audio search.
func (s *Service) WithJointWeight(w float64) *Service {
	if w > 0 {
		s.jointWeight = w
	}
	return s
}

// WithModalityTimeout sets the per-modality search timeout.
func (s *Service) WithModalityTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithTextScanPage sets how many catalog points a text query scores.
func (s *Service) WithTextScanPage(n int) *Service {
	if n > 0 {
		s.textPage = n
	}
	return s
}

// WithThreshold sets the similarity threshold for vector modalities.
func (s *Service) WithThreshold(t float64) *Service {
	if t >= 0 && t <= 1 {
		s.threshold = t
	}
	return s
}

// task is one independent modality search.
type task struct {
	modality modality.Modality
	weight   float64
	run      func(ctx context.Context) ([]result.Candidate, error)
}

// Fuse runs every supplied modality concurrently and merges the results.
// A modality that fails with a backend error or times out contributes no
// candidates. Validation errors and caller cancellation fail the whole call.
func (s *Service) Fuse(ctx context.Context, req *request.Hybrid) ([]result.Fused, error) {
	start := time.Now()
	results, err := s.fuse(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues("hybrid", status).Inc()
	metrics.SearchDuration.WithLabelValues("hybrid").Observe(time.Since(start).Seconds())
	return results, err
}

func (s *Service) fuse(ctx context.Context, req *request.Hybrid) ([]result.Fused, error) {
	tasks, err := s.plan(req)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return []result.Fused{}, nil
	}

	lists := make([]ranked, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		lists[i] = ranked{modality: t.modality, weight: t.weight}
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()

			candidates, err := t.run(tctx)
			if err == nil {
				lists[i].candidates = candidates
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err() //nolint:wrapcheck // caller cancellation
			}
			if isFatal(err) {
				return fmt.Errorf("%s search: %w", t.modality, err)
			}
			s.degrade(t.modality, err, tctx.Err() != nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already annotated per modality
	}
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck // no partial results on cancellation
	}

	return accumulate(lists, req.Limit()), nil
}

// plan builds the modality tasks in a fixed order: image, audio, joint, text.
func (s *Service) plan(req *request.Hybrid) ([]task, error) {
	weights := req.Weights()
	var tasks []task

	vectorTask := func(m modality.Modality, collection string, vec []float32, weight float64, factor int) error {
		sim, err := request.NewSimilarity(collection, vec, req.Limit(), s.threshold, req.Filters(), false)
		if err != nil {
			return fmt.Errorf("%s search: %w", m, err)
		}
		sim = sim.Overfetch(factor)
		tasks = append(tasks, task{
			modality: m,
			weight:   weight,
			run: func(ctx context.Context) ([]result.Candidate, error) {
				return s.search.Search(ctx, &sim)
			},
		})
		return nil
	}

	if req.HasImage() {
		if err := vectorTask(modality.Image, s.roles.Image, req.Image(), weights.Of(modality.Image), overfetch); err != nil {
			return nil, err
		}
	}
	if req.HasAudio() {
		if err := vectorTask(modality.Audio, s.roles.Audio, req.Audio(), weights.Of(modality.Audio), overfetch); err != nil {
			return nil, err
		}
	}
	if joint, ok := req.Joint(); ok {
		if err := vectorTask(modality.Hybrid, s.roles.Joint, joint, s.jointWeight, 1); err != nil {
			return nil, err
		}
	}
	if req.HasText() {
		phrase := req.Text()
		tasks = append(tasks, task{
			modality: modality.Text,
			weight:   weights.Of(modality.Text),
			run: func(ctx context.Context) ([]result.Candidate, error) {
				return s.scoreText(ctx, phrase, req)
			},
		})
	}
	return tasks, nil
}

// scoreText scores a filtered catalog scan. Points with no matching field are dropped.
func (s *Service) scoreText(ctx context.Context, phrase string, req *request.Hybrid) ([]result.Candidate, error) {
	points, err := s.text.ScanText(ctx, s.roles.Catalog, phrase, relevance.FieldNames(), req.Filters(), s.textPage)
	if err != nil {
		return nil, err //nolint:wrapcheck // annotated by the caller
	}

	out := make([]result.Candidate, 0, len(points))
	for _, p := range points {
		score := relevance.Score(phrase, p.Metadata())
		if score <= 0 {
			continue
		}
		out = append(out, result.NewCandidate(p.ID(), score, s.roles.Catalog, p.Metadata(), nil))
	}
	return out, nil
}

func (s *Service) degrade(m modality.Modality, err error, timedOut bool) {
	reason := "error"
	if timedOut || errors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	metrics.ModalityDegradedTotal.WithLabelValues(string(m), reason).Inc()
	s.logger.Warn("Modality search degraded",
		zap.String("modality", string(m)),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

// isFatal reports errors caused by the request or configuration rather than the backend.
// A modality whose collection is missing from the backend degrades instead.
func isFatal(err error) bool {
	return errors.Is(err, domain.ErrDimensionMismatch) ||
		errors.Is(err, domain.ErrInvalidFilter) ||
		errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrSchemaConflict)
}
