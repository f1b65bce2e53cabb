package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/docchat/internal/model/chat"
	"github.com/zhouzirui/docchat/internal/model/workspace"
	chatService "github.com/zhouzirui/docchat/internal/service/chat"
	"github.com/zhouzirui/docchat/internal/store"
	"github.com/zhouzirui/docchat/pkg/utils"
)

// Querier answers a workspace question.
type Querier interface {
	Query(ctx context.Context, workspaceID, message string) (chat.QueryResponse, error)
}

// WorkspaceLookup resolves workspace ids before they reach the limiter.
type WorkspaceLookup interface {
	GetWorkspace(ctx context.Context, id string) (workspace.Workspace, error)
}

// Handler serves the chat query endpoint used by the widget.
type Handler struct {
	chatSvc    Querier
	workspaces WorkspaceLookup
	limiter    *workspaceLimiter
}

// New creates the chat handler. ratePerMinute <= 0 disables rate limiting.
func New(chatSvc Querier, workspaces WorkspaceLookup, ratePerMinute int) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		workspaces: workspaces,
		limiter:    newWorkspaceLimiter(ratePerMinute),
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/query", h.handleQuery)
}

// handleQuery answers one question from the workspace's documents.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var payload chat.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Only known workspaces get a bucket.
	if _, err := h.workspaces.GetWorkspace(r.Context(), payload.WorkspaceID); err != nil {
		if errors.Is(err, store.ErrWorkspaceNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Workspace not found")
			return
		}
		log.Error().Err(err).Str("workspace", payload.WorkspaceID).Msg("workspace lookup failed")
		utils.RespondError(w, http.StatusInternalServerError, "Failed to process chat query: "+err.Error())
		return
	}

	if !h.limiter.Allow(payload.WorkspaceID) {
		utils.RespondError(w, http.StatusTooManyRequests, "Too many requests - please slow down")
		return
	}

	resp, err := h.chatSvc.Query(r.Context(), payload.WorkspaceID, payload.Message)
	if err != nil {
		status, detail := queryErrorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("workspace", payload.WorkspaceID).Msg("chat query failed")
		}
		utils.RespondError(w, status, detail)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

func queryErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chatService.ErrWorkspaceNotFound):
		return http.StatusNotFound, "Workspace not found"
	case errors.Is(err, chatService.ErrMessageRequired):
		return http.StatusBadRequest, "Message cannot be empty"
	case errors.Is(err, chatService.ErrMessageTooLong):
		return http.StatusBadRequest, "Message is too long"
	case errors.Is(err, chatService.ErrAssistantUnavailable):
		return http.StatusServiceUnavailable, "AI assistant is currently unavailable"
	case errors.Is(err, chatService.ErrQueryTimeout):
		return http.StatusGatewayTimeout, "Query timeout - please try again with a shorter message"
	default:
		return http.StatusInternalServerError, "Failed to process chat query: " + err.Error()
	}
}
