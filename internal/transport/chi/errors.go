package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/postalgeo/internal/domain"
	logpkg "github.com/kailas-cloud/postalgeo/internal/logger"
	"github.com/kailas-cloud/postalgeo/internal/usecase/reload"
)

// ErrorCode is a machine-readable error tag.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeNotReady          ErrorCode = "not_ready"
	CodeSourceUnavailable ErrorCode = "source_unavailable"
	CodeStoreBuildFailed  ErrorCode = "store_build_failed"
	CodeReloadInProgress  ErrorCode = "reload_in_progress"
	CodeReloadDisabled    ErrorCode = "reload_disabled"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeNotFound          ErrorCode = "not_found"
	CodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, CodeNotReady),
		sentinelHandler(reload.ErrInProgress, http.StatusConflict, CodeReloadInProgress),
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusBadGateway, CodeSourceUnavailable),
		sentinelHandler(domain.ErrStoreBuild, http.StatusInternalServerError, CodeStoreBuildFailed),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotReady,
		reload.ErrInProgress,
		domain.ErrSourceUnavailable,
		domain.ErrStoreBuild,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// validationHandler reports the rejected field. Validation messages are built
// from caller input only, so they are safe to return verbatim.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, ve.Error())
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, domain.ErrValidation.Error())
		return true
	}
	return false
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// handleDomainError logs through the request logger so entries carry the
// request ID.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
