package handler

import (
	"encoding/json"
	"net/http"

	"pagepilot/internal/domain"
	"pagepilot/internal/service"
	apperrors "pagepilot/pkg/errors"
	"pagepilot/pkg/logger"
)

// ActivationHandler processes the activation form submission that connects
// the site to the content platform
type ActivationHandler struct {
	keyExchange service.KeyExchange
	logger      *logger.Logger
}

// NewActivationHandler creates a new activation handler
func NewActivationHandler(keyExchange service.KeyExchange, log *logger.Logger) *ActivationHandler {
	return &ActivationHandler{
		keyExchange: keyExchange,
		logger:      log,
	}
}

// Activate handles POST /connect/activate with {field_value, reconnect}
func (h *ActivationHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req domain.ActivationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}

	message, err := h.keyExchange.Activate(r.Context(), req.FieldValue, req.Reconnect)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": message}, h.logger)
}
