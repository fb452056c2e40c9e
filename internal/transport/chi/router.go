package chi

import (
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/whokrish/vectorbeats/internal/metrics"
)

// NewRouter mounts every route of s behind the standard middleware chain.
func NewRouter(s *Server, logger *zap.Logger, apiKeys []string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chimw.RequestID)
	r.Use(requestLogMiddleware(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/service-info", s.ServiceInfo)

	r.Post("/multimodal", s.StoreMultimodal)
	r.Post("/hybrid-search", s.HybridSearch)

	r.Route("/collections", func(r chirouter.Router) {
		r.Get("/", s.ListCollections)
		r.Post("/ensure", s.EnsureCollections)

		r.Route("/{collection}", func(r chirouter.Router) {
			r.Get("/", s.GetCollection)
			r.Post("/search", s.Search)
			r.Post("/snapshots", s.CreateSnapshot)

			r.Route("/points", func(r chirouter.Router) {
				r.Post("/", s.UpsertPoint)
				r.Post("/batch", s.BatchUpsert)
				r.Post("/delete", s.DeleteByFilter)
				r.Post("/count", s.CountPoints)
				r.Get("/{id}", s.GetPoint)
				r.Patch("/{id}", s.PatchPoint)
				r.Delete("/{id}", s.DeletePoint)
			})
		})
	})

	return r
}
