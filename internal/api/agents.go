package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillchat/quill/internal/conversation"
)

// agentHandler serves agent persona CRUD endpoints.
type agentHandler struct {
	store  *conversation.Store
	logger *slog.Logger
}

// agentView is the JSON shape of an agent.
type agentView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Persona   string    `json:"persona"`
	Rules     string    `json:"rules"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// agentRequest is the create/update request body.
type agentRequest struct {
	Name    string `json:"name"`
	Persona string `json:"persona"`
	Rules   string `json:"rules"`
}

func viewAgent(a *conversation.Agent) agentView {
	return agentView{
		ID:        a.ID.String(),
		Name:      a.Name,
		Persona:   a.Persona,
		Rules:     a.Rules,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (h *agentHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusForbidden, "user_required", "user identity required", h.logger)
		return
	}

	agents, err := h.store.ListAgents(r.Context(), userID)
	if err != nil {
		h.logger.Error("listing agents", "error", err)
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list agents", h.logger)
		return
	}

	views := make([]agentView, 0, len(agents))
	for _, a := range agents {
		views = append(views, viewAgent(a))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"agents": views})
}

func (h *agentHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusForbidden, "user_required", "user identity required", h.logger)
		return
	}

	var req agentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, "missing_name", "agent name is required", h.logger)
		return
	}

	agent, err := h.store.CreateAgent(r.Context(), userID, req.Name, req.Persona, req.Rules)
	if err != nil {
		h.logger.Error("creating agent", "error", err)
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create agent", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, viewAgent(agent))
}

func (h *agentHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	agent, err := h.store.Agent(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "agent not found", h.logger)
			return
		}
		h.logger.Error("getting agent", "error", err)
		WriteError(w, http.StatusInternalServerError, "get_failed", "failed to get agent", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, viewAgent(agent))
}

func (h *agentHandler) update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req agentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, "missing_name", "agent name is required", h.logger)
		return
	}

	if err := h.store.UpdateAgent(r.Context(), id, userID, req.Name, req.Persona, req.Rules); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "agent not found", h.logger)
			return
		}
		h.logger.Error("updating agent", "error", err)
		WriteError(w, http.StatusInternalServerError, "update_failed", "failed to update agent", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *agentHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteAgent(r.Context(), id, userID); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "agent not found", h.logger)
			return
		}
		h.logger.Error("deleting agent", "error", err)
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete agent", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// authorize extracts the user identity and the {id} path parameter.
func (h *agentHandler) authorize(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusForbidden, "user_required", "user identity required", h.logger)
		return "", uuid.Nil, false
	}

	raw := r.PathValue("id")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "missing_id", "agent ID required", h.logger)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "invalid agent ID", h.logger)
		return "", uuid.Nil, false
	}
	return userID, id, true
}
