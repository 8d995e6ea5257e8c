package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/usecase"
	"github.com/secmon-lab/pmotracker/pkg/utils/errutil"
	"github.com/secmon-lab/pmotracker/pkg/utils/safe"
)

// statusOf maps usecase errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidEnum), errors.Is(err, usecase.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrProjectNotFound),
		errors.Is(err, usecase.ErrRiskNotFound),
		errors.Is(err, usecase.ErrIssueNotFound),
		errors.Is(err, usecase.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
