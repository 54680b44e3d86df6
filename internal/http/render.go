package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondErrorMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

var validationSentinels = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidKind,
	core.ErrInvalidFrequency,
	core.ErrEmptyDescription,
	core.ErrEmptyCategory,
	core.ErrEmptyOwner,
}

// respondError maps domain errors onto the API's status codes: validation
// failures are 422 with the offending field, missing or foreign-owner rows
// are 404 so existence never leaks, everything else is a 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Reason, Field: verr.Field})
		return
	}

	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
			return
		}
	}

	if errors.Is(err, storage.ErrNotFound) {
		respondErrorMessage(w, http.StatusNotFound, "not found")
		return
	}

	slog.ErrorContext(r.Context(), "Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	respondErrorMessage(w, http.StatusInternalServerError, "internal server error")
}
