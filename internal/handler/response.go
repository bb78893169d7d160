package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "pagepilot/pkg/errors"
	"pagepilot/pkg/logger"
)

// respondJSON writes the standard success envelope
func respondJSON(w http.ResponseWriter, status int, data interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// respondError writes the standard error envelope, mapping AppError status
// codes and hiding internal details
func respondError(w http.ResponseWriter, err error, log *logger.Logger) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.NewInternalError("Internal server error", err)
	}

	if appErr.Internal != nil {
		log.WithError(appErr).Error("Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    appErr.Type,
			"message": appErr.Message,
		},
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		log.WithError(encodeErr).Error("Failed to encode error response")
	}
}

// parseIDParam parses a required numeric query parameter
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperrors.NewValidationError(name+" is required", nil)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("Invalid "+name+" provided", nil)
	}

	return id, nil
}

// parseTimestampParam parses the required timestamp query parameter: a
// plain integer string within int64 bounds
func parseTimestampParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("timestamp")
	if raw == "" {
		return 0, apperrors.NewValidationError("Timestamp is required", nil)
	}

	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ts <= 0 {
		return 0, apperrors.NewValidationError("Invalid timestamp provided", nil)
	}

	return ts, nil
}
