package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Saul-Punybz/hnbrief/internal/models"
	"github.com/Saul-Punybz/hnbrief/internal/storage"
)

type PostLister interface {
	List(ctx context.Context, limit int) ([]models.Post, error)
}

type EvidenceGetter interface {
	GetEvidence(ctx context.Context, objectID string) (*storage.Evidence, error)
}

// PostHandler serves the delivered-post archive. Either field may be nil
// when the backing store is not configured.
type PostHandler struct {
	Posts    PostLister
	Evidence EvidenceGetter
}

// List handles GET /api/posts?limit=50.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Posts == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	posts, err := h.Posts.List(r.Context(), limit)
	if err != nil {
		slog.Error("list posts", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if posts == nil {
		posts = []models.Post{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
	})
}

// GetEvidence handles GET /api/posts/{objectID}/evidence.
func (h *PostHandler) GetEvidence(w http.ResponseWriter, r *http.Request) {
	if h.Evidence == nil {
		writeError(w, http.StatusServiceUnavailable, "evidence storage not configured")
		return
	}

	objectID := chi.URLParam(r, "objectID")
	if objectID == "" {
		writeError(w, http.StatusBadRequest, "missing object id")
		return
	}

	ev, err := h.Evidence.GetEvidence(r.Context(), objectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "evidence storage not configured")
			return
		}
		slog.Warn("get evidence", "object_id", objectID, "err", err)
		writeError(w, http.StatusNotFound, "no evidence for post")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"object_id": objectID,
		"raw":       string(ev.Raw),
		"summary":   string(ev.Summary),
		"meta":      ev.Meta,
	})
}
