package analytics

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/model/workspace"
	"github.com/zhouzirui/docchat/internal/store"
	"github.com/zhouzirui/docchat/pkg/utils"
)

// SummaryStore reads message log aggregates.
type SummaryStore interface {
	GetWorkspace(ctx context.Context, id string) (workspace.Workspace, error)
	Summary(ctx context.Context, workspaceID string) (chat.Summary, error)
}

// Handler serves workspace message analytics.
type Handler struct {
	store SummaryStore
}

// New creates the analytics handler.
func New(st SummaryStore) *Handler {
	return &Handler{store: st}
}

// RegisterRoutes mounts the analytics endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/{workspaceID}/summary", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceID")

	if _, err := h.store.GetWorkspace(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrWorkspaceNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Workspace not found")
			return
		}
		log.Error().Err(err).Str("workspace", id).Msg("failed to load workspace")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	summary, err := h.store.Summary(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("workspace", id).Msg("failed to summarise messages")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}
