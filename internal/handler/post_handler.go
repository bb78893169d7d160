package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"pagepilot/internal/domain"
	"pagepilot/internal/repository"
	apperrors "pagepilot/pkg/errors"
	"pagepilot/pkg/logger"
)

// PostHandler serves the content CRUD endpoints used by the platform to
// publish and manage posts on the connected site
type PostHandler struct {
	postRepo repository.PostRepository
	logger   *logger.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(postRepo repository.PostRepository, log *logger.Logger) *PostHandler {
	return &PostHandler{
		postRepo: postRepo,
		logger:   log,
	}
}

// Publish handles POST /publish
func (h *PostHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req domain.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}

	if req.Title == "" {
		respondError(w, apperrors.NewValidationError("post_title is required", nil), h.logger)
		return
	}
	if req.Content == "" {
		respondError(w, apperrors.NewValidationError("post_content is required", nil), h.logger)
		return
	}

	status := req.Status
	if status == "" {
		status = "publish"
	}

	post := &domain.Post{
		Title:      req.Title,
		Content:    req.Content,
		Status:     status,
		CategoryID: req.CategoryID,
	}

	if err := h.postRepo.Create(r.Context(), post); err != nil {
		respondError(w, apperrors.NewInternalError("Failed to create post", err), h.logger)
		return
	}

	h.logger.WithField("post_id", post.ID).Info("Post published")
	respondJSON(w, http.StatusCreated, post, h.logger)
}

// Update handles PATCH /update
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.NewValidationError("Invalid request body", nil), h.logger)
		return
	}
	if req.PostID <= 0 {
		respondError(w, apperrors.NewValidationError("post_id is required", nil), h.logger)
		return
	}

	if err := h.postRepo.Update(r.Context(), &req); err != nil {
		if err == pgx.ErrNoRows {
			respondError(w, apperrors.NewNotFoundError("Post not found"), h.logger)
		} else {
			respondError(w, apperrors.NewInternalError("Failed to update post", err), h.logger)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"post_id": req.PostID}, h.logger)
}

// Delete handles DELETE /delete?post_id=
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "post_id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	if err := h.postRepo.Delete(r.Context(), postID); err != nil {
		if err == pgx.ErrNoRows {
			respondError(w, apperrors.NewNotFoundError("Post not found"), h.logger)
		} else {
			respondError(w, apperrors.NewInternalError("Failed to delete post", err), h.logger)
		}
		return
	}

	h.logger.WithField("post_id", postID).Info("Post deleted")
	respondJSON(w, http.StatusOK, map[string]int64{"post_id": postID}, h.logger)
}

// GetPost handles GET /post?post_id=
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "post_id")
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	post, err := h.postRepo.GetByID(r.Context(), postID)
	if err != nil {
		respondError(w, apperrors.NewInternalError("Failed to load post", err), h.logger)
		return
	}
	if post == nil {
		respondError(w, apperrors.NewNotFoundError("Post not found"), h.logger)
		return
	}

	respondJSON(w, http.StatusOK, post, h.logger)
}

// ListPosts handles GET /posts?limit=&offset=
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := parseBoundedInt(r.URL.Query().Get("limit"), 20, 100)
	offset := parseBoundedInt(r.URL.Query().Get("offset"), 0, 1<<30)

	posts, err := h.postRepo.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, apperrors.NewInternalError("Failed to list posts", err), h.logger)
		return
	}

	respondJSON(w, http.StatusOK, posts, h.logger)
}

// GetCategories handles GET /categories
func (h *PostHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.postRepo.Categories(r.Context())
	if err != nil {
		respondError(w, apperrors.NewInternalError("Failed to load categories", err), h.logger)
		return
	}

	respondJSON(w, http.StatusOK, categories, h.logger)
}

// parseBoundedInt parses a non-negative int with a fallback and an upper cap
func parseBoundedInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
