// Package handlers implements the HTTP API of the feature registry.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

func writeJSON(w http.ResponseWriter, log domain.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode JSON response", logger.Error(err))
	}
}

// writeError renders err as {"code","message"}. Errors that are not an
// AppError become an internal error and are logged.
func writeError(w http.ResponseWriter, log domain.Logger, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		log.Error("Unhandled error", logger.Error(err))
		appErr = domain.NewInternalError("Internal server error", err)
	}
	writeJSON(w, log, appErr.HTTPStatus, appErr)
}
