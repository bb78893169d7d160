package handler

import (
	"encoding/json"
	"net"
	"net/http"

	"pagepilot/internal/service"
	apperrors "pagepilot/pkg/errors"
	"pagepilot/pkg/logger"
)

// TrackHandler is the HTTP surface of the page-render hook: the site calls
// it once per singular content view
type TrackHandler struct {
	tracker service.ViewTracker
	logger  *logger.Logger
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(tracker service.ViewTracker, log *logger.Logger) *TrackHandler {
	return &TrackHandler{
		tracker: tracker,
		logger:  log,
	}
}

type trackRequest struct {
	PostID int64 `json:"post_id"`
}

// RecordView handles POST /views/track. Tracking is fire and forget: a
// storage failure is logged and the caller still gets 202, so a page render
// never surfaces a tracking error.
func (h *TrackHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}
	if req.PostID <= 0 {
		respondError(w, apperrors.NewValidationError("post_id is required", nil), h.logger)
		return
	}

	ipAddress := clientIP(r)
	userAgent := r.UserAgent()

	if _, err := h.tracker.Track(r.Context(), req.PostID, ipAddress, userAgent); err != nil {
		h.logger.WithError(err).WithField("post_id", req.PostID).Warn("View tracking skipped")
	}

	respondJSON(w, http.StatusAccepted, nil, h.logger)
}

// clientIP returns the request's source address without the port. RealIP
// middleware has already resolved proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
