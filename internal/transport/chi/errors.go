package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/whokrish/vectorbeats/internal/domain"
	logpkg "github.com/whokrish/vectorbeats/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// sentinelStatus is the ordered sentinel -> HTTP status table.
var sentinelStatus = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrUnknownCollection, http.StatusNotFound, codeUnknownCollection},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrSchemaConflict, http.StatusConflict, codeSchemaConflict},
	{domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch},
	{domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter},
	{domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest},
	{domain.ErrUpstreamInput, http.StatusUnprocessableEntity, codeUpstreamInput},
	{domain.ErrBackendUnavailable, http.StatusServiceUnavailable, codeBackendUnavailable},
	{domain.ErrNotImplemented, http.StatusNotImplemented, codeNotImplemented},
}

// clientErrors carry caller input only, so their full text is safe to return.
var clientErrors = []error{
	domain.ErrDimensionMismatch,
	domain.ErrInvalidFilter,
	domain.ErrInvalidRequest,
	domain.ErrSchemaConflict,
}

func defaultErrorHandlers() []errorHandler {
	handlers := []errorHandler{dimensionMismatchHandler}
	for _, e := range sentinelStatus {
		handlers = append(handlers, sentinelHandler(e.sentinel, e.status, e.code))
	}
	return handlers
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, clientMessage(err))
		return true
	}
}

// dimensionMismatchHandler adds the expected and actual sizes to the reply.
func dimensionMismatchHandler(w http.ResponseWriter, err error) bool {
	var dme *domain.DimensionMismatchError
	if !errors.As(err, &dme) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":       codeDimensionMismatch,
		"message":    clientMessage(err),
		"collection": dme.Collection,
		"expected":   dme.Expected,
		"actual":     dme.Actual,
	})
	return true
}

// errorCode returns the reply code for err without writing anything.
func errorCode(err error) string {
	for _, e := range sentinelStatus {
		if errors.Is(err, e.sentinel) {
			return e.code
		}
	}
	return codeInternal
}

// clientMessage returns the full text of input errors and only the sentinel
// text of everything else.
func clientMessage(err error) string {
	for _, s := range clientErrors {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return safeDomainMessage(err)
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, e := range sentinelStatus {
		if errors.Is(err, e.sentinel) {
			return e.sentinel.Error()
		}
	}
	return "internal error"
}

// handleDomainError maps err to a reply and logs it with the request-scoped logger.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
