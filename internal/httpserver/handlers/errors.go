package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
)

type errorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Report  interface{} `json:"report,omitempty"`
}

// errorStatus maps an error kind to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch domain.Kind(err) {
	case domain.ErrSyncAborted:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, "sync_timeout"
		}
		return http.StatusInternalServerError, "sync_aborted"
	case domain.ErrUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case domain.ErrRunInProgress:
		return http.StatusConflict, "run_in_progress"
	case domain.ErrRollbackFailed:
		return http.StatusConflict, "rollback_failed"
	case domain.ErrLinkageWriteFailed:
		return http.StatusFailedDependency, "linkage_write_failed"
	case domain.ErrSourceUnavailable:
		return http.StatusBadGateway, "source_unavailable"
	case domain.ErrTargetUnavailable:
		return http.StatusBadGateway, "target_unavailable"
	case domain.ErrWriteFailed:
		return http.StatusBadGateway, "write_failed"
	case domain.ErrConfigMissing:
		return http.StatusPreconditionFailed, "config_missing"
	case domain.ErrInvalidProduct:
		return http.StatusBadRequest, "invalid_request"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError renders err as {error, message}; report, when non-nil, carries partial results.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error, report interface{}) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	} else {
		log.Warn("request rejected",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse{
		Error:   code,
		Message: err.Error(),
		Report:  report,
	})
}

// badRequest renders a 400 for malformed input.
func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{Error: "invalid_request", Message: message})
}
