package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pagepilot/internal/domain"
	"pagepilot/internal/service"
	apperrors "pagepilot/pkg/errors"
	"pagepilot/pkg/logger"
)

// RequireTier creates a middleware gating a route group on one key tier.
// Public and private tiers verify against disjoint secrets.
func RequireTier(authGate service.AuthGate, tier domain.Tier, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, apperrors.NewAuthenticationError("Authorization header missing"), logger)
				return
			}

			token, ok := parseBearer(authHeader)
			if !ok {
				writeErrorResponse(w, apperrors.NewAuthenticationError("Invalid authorization header format"), logger)
				return
			}

			if err := authGate.Verify(r.Context(), tier, token); err != nil {
				if appErr, isApp := err.(*apperrors.AppError); isApp {
					writeErrorResponse(w, appErr, logger)
				} else {
					writeErrorResponse(w, apperrors.NewInternalError("Authorization check failed", err), logger)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parseBearer extracts the token from an Authorization header. The scheme
// must be exactly "Bearer" (case sensitive) followed by a single space and
// a non-empty token.
func parseBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	if token == "" || strings.ContainsRune(token, ' ') {
		return "", false
	}
	return token, true
}

// writeErrorResponse writes a structured error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *apperrors.AppError, logger *logger.Logger) {
	logger.WithError(appErr).WithField("status", appErr.StatusCode).Debug("Request rejected")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":      appErr.Type,
			"message":   appErr.Message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
