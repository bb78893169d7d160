package handler

import (
	"net/http"

	"pagepilot/internal/service"
	"pagepilot/pkg/logger"
)

// StatsHandler serves the analytics endpoints reported back to the content
// platform
type StatsHandler struct {
	stats  service.StatsService
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats service.StatsService, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: log,
	}
}

// GetDailyPostView handles GET /stats/today?post_id=&timestamp=
func (h *StatsHandler) GetDailyPostView(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "post_id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	timestamp, err := parseTimestampParam(r)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	count, err := h.stats.PostViewsForDay(r.Context(), postID, timestamp)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"result": count}, h.logger)
}

// GetMonthlyPostView handles GET /stats/monthly?post_id=&timestamp=
func (h *StatsHandler) GetMonthlyPostView(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "post_id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	timestamp, err := parseTimestampParam(r)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	count, err := h.stats.PostViewsForMonth(r.Context(), postID, timestamp)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"result": count}, h.logger)
}

// GetSiteDailyView handles GET /sites/stats/today?timestamp=
func (h *StatsHandler) GetSiteDailyView(w http.ResponseWriter, r *http.Request) {
	timestamp, err := parseTimestampParam(r)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	count, err := h.stats.SiteViewsForDay(r.Context(), timestamp)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"result": count}, h.logger)
}

// GetSiteStats handles GET /sites/stats
func (h *StatsHandler) GetSiteStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.SiteStats(r.Context())
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, stats, h.logger)
}
