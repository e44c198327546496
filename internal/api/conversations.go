package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/quillchat/quill/internal/conversation"
)

// conversationHandler serves conversation CRUD and history endpoints.
type conversationHandler struct {
	store  *conversation.Store
	logger *slog.Logger
}

// conversationView is the JSON shape of a conversation.
type conversationView struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// messageView is the JSON shape of a stored message.
type messageView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

func viewConversation(c *conversation.Conversation) conversationView {
	v := conversationView{
		ID:        c.ID.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.AgentID != nil {
		v.AgentID = c.AgentID.String()
	}
	return v
}

func (h *conversationHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusForbidden, "user_required", "user identity required", h.logger)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	if offset > 10000 {
		WriteError(w, http.StatusBadRequest, "invalid_offset", "offset must be 10000 or less", h.logger)
		return
	}

	convs, err := h.store.ListConversations(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("listing conversations", "error", err)
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list conversations", h.logger)
		return
	}

	views := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, viewConversation(c))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"conversations": views})
}

func (h *conversationHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusForbidden, "user_required", "user identity required", h.logger)
		return
	}

	var req struct {
		Title   string `json:"title"`
		AgentID string `json:"agent_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	var agentID *uuid.UUID
	if req.AgentID != "" {
		id, err := uuid.Parse(req.AgentID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_id", "invalid agent ID", h.logger)
			return
		}
		if _, err := h.store.Agent(r.Context(), id, userID); err != nil {
			if errors.Is(err, conversation.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "not_found", "agent not found", h.logger)
				return
			}
			h.logger.Error("checking agent", "error", err)
			WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create conversation", h.logger)
			return
		}
		agentID = &id
	}

	conv, err := h.store.CreateConversation(r.Context(), userID, req.Title, agentID)
	if err != nil {
		h.logger.Error("creating conversation", "error", err)
		WriteError(w, http.StatusInternalServerError, "create_failed", "failed to create conversation", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, viewConversation(conv))
}

func (h *conversationHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	conv, err := h.store.Conversation(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
			return
		}
		h.logger.Error("getting conversation", "error", err)
		WriteError(w, http.StatusInternalServerError, "get_failed", "failed to get conversation", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, viewConversation(conv))
}

func (h *conversationHandler) messages(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	// Ownership check before exposing history.
	if _, err := h.store.Conversation(r.Context(), id, userID); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
			return
		}
		h.logger.Error("checking conversation", "error", err)
		WriteError(w, http.StatusInternalServerError, "get_failed", "failed to get messages", h.logger)
		return
	}

	limit := queryInt(r, "limit", 0)
	msgs, err := h.store.History(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("loading messages", "error", err)
		WriteError(w, http.StatusInternalServerError, "get_failed", "failed to get messages", h.logger)
		return
	}

	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{
			ID:        m.ID.String(),
			Role:      string(m.Role),
			Content:   m.Content,
			Sequence:  m.SequenceNumber,
			CreatedAt: m.CreatedAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"messages": views})
}

func (h *conversationHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteConversation(r.Context(), id, userID); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
			return
		}
		h.logger.Error("deleting conversation", "error", err)
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete conversation", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// authorize extracts the user identity and the {id} path parameter.
// Writes the appropriate error response and returns ok=false on failure.
func (h *conversationHandler) authorize(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusForbidden, "user_required", "user identity required", h.logger)
		return "", uuid.Nil, false
	}

	raw := r.PathValue("id")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "missing_id", "conversation ID required", h.logger)
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "invalid conversation ID", h.logger)
		return "", uuid.Nil, false
	}
	return userID, id, true
}

// queryInt parses an integer query parameter with a fallback default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
