package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/docchat/internal/model/workspace"
	"github.com/zhouzirui/docchat/internal/store"
	"github.com/zhouzirui/docchat/pkg/utils"
)

// SettingsStore loads and updates workspace chatbot settings.
type SettingsStore interface {
	GetWorkspace(ctx context.Context, id string) (workspace.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]workspace.Workspace, error)
	UpdateSettings(ctx context.Context, id string, update workspace.SettingsUpdate) (workspace.Workspace, error)
}

// Handler serves widget customization settings.
type Handler struct {
	store SettingsStore
}

// New creates the settings handler.
func New(st SettingsStore) *Handler {
	return &Handler{store: st}
}

// RegisterRoutes mounts the settings endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chatbot/workspaces", h.handleListWorkspaces)
	r.Get("/chatbot/settings/{workspaceID}", h.handleGetSettings)
	r.Post("/chatbot/settings/{workspaceID}", h.handleUpdateSettings)
}

// handleGetSettings returns the settings with defaults filled in.
func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ws, err := h.store.GetWorkspace(r.Context(), chi.URLParam(r, "workspaceID"))
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, ws.ResolvedSettings())
}

// handleListWorkspaces lists every workspace with resolved settings.
func (h *Handler) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListWorkspaces(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list workspaces failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to list workspaces")
		return
	}

	resolved := make([]workspace.Workspace, 0, len(items))
	for _, ws := range items {
		ws.Settings = ws.ResolvedSettings()
		resolved = append(resolved, ws)
	}
	utils.RespondJSON(w, http.StatusOK, resolved)
}

// handleUpdateSettings applies a partial update.
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update workspace.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if update.Empty() {
		utils.RespondError(w, http.StatusBadRequest, "no settings to update")
		return
	}
	if err := update.Validate(); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id := chi.URLParam(r, "workspaceID")
	ws, err := h.store.UpdateSettings(r.Context(), id, update)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	log.Info().Str("workspace", id).Msg("chatbot settings updated")
	utils.RespondJSON(w, http.StatusOK, ws.ResolvedSettings())
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrWorkspaceNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Workspace not found")
		return
	}
	log.Error().Err(err).Msg("settings store failure")
	utils.RespondError(w, http.StatusInternalServerError, "failed to load chatbot settings")
}
