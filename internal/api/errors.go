package api

import (
	"context"
	"errors"
	"net/http"

	"ytframes/internal/services"
	"ytframes/internal/session"
	"ytframes/internal/workflow"
)

// StatusFor maps a service error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrUnknownCandidate), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmptySelection),
		errors.Is(err, workflow.ErrNotSelectable),
		errors.Is(err, workflow.ErrBusy),
		errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
