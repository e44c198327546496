package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/quillchat/quill/internal/chat"
	"github.com/quillchat/quill/internal/conversation"
)

// maxChatBodyBytes limits chat request bodies to 1MB.
const maxChatBodyBytes = 1 << 20

// chatRequest is the POST /api/v1/chat request body.
// ConversationID is optional: when absent, a new conversation is created.
type chatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	AgentID        string `json:"agent_id,omitempty"`
	Message        string `json:"message"`
	Model          string `json:"model,omitempty"`
	ToolsEnabled   bool   `json:"tools_enabled"`
}

// chatResponse is the POST /api/v1/chat success body.
type chatResponse struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title,omitempty"`
	Response       string `json:"response"`
}

// chatHandler glues the conversation store and the chat orchestrator:
// load history, run the pipeline, persist the new turn, generate a title
// for fresh conversations.
type chatHandler struct {
	orchestrator *chat.Orchestrator
	store        *conversation.Store
	maxHistory   int
	logger       *slog.Logger
}

func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok || userID == "" {
		WriteError(w, http.StatusForbidden, "user_required", "user identity required", h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		WriteError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}

	ctx := r.Context()

	conv, created, err := h.resolveConversation(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, conversation.ErrNotFound):
			WriteError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
		case errors.Is(err, conversation.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "invalid_id", "invalid conversation or agent ID", h.logger)
		default:
			h.logger.Error("resolving conversation", "error", err)
			WriteError(w, http.StatusInternalServerError, "conversation_failed", "failed to resolve conversation", h.logger)
		}
		return
	}

	// Load prior turns plus the new user message as the raw history.
	history, err := h.store.ChatHistory(ctx, conv.ID, h.maxHistory)
	if err != nil {
		h.logger.Error("loading history", "error", err, "conversation", conv.ID)
		WriteError(w, http.StatusInternalServerError, "history_failed", "failed to load history", h.logger)
		return
	}
	history = append(history, chat.Message{Role: chat.RoleUser, Content: message})

	var agentCtx *chat.AgentContext
	if conv.AgentID != nil {
		agent, err := h.store.Agent(ctx, *conv.AgentID, userID)
		if err == nil {
			agentCtx = agent.Context()
		} else if !errors.Is(err, conversation.ErrNotFound) {
			h.logger.Warn("loading agent context", "error", err, "agent", *conv.AgentID)
		}
	}

	outcome := h.orchestrator.Run(ctx, chat.Request{
		Messages:     history,
		Agent:        agentCtx,
		Model:        req.Model,
		ToolsEnabled: req.ToolsEnabled,
	})
	if !outcome.OK() {
		status, code := failureStatus(outcome.Failure)
		WriteError(w, status, code, outcome.Failure.Message, h.logger)
		return
	}

	// Persist the completed turn. The reply was already generated, so a
	// storage failure is logged but does not fail the request.
	if err := h.store.AppendMessages(ctx, conv.ID, []chat.Message{
		{Role: chat.RoleUser, Content: message},
		{Role: chat.RoleModel, Content: outcome.Response},
	}); err != nil {
		h.logger.Error("persisting turn", "error", err, "conversation", conv.ID)
	}

	title := conv.Title
	if created {
		title = h.generateTitle(ctx, conv.ID, userID, message)
	}

	WriteJSON(w, http.StatusOK, chatResponse{
		ConversationID: conv.ID.String(),
		Title:          title,
		Response:       outcome.Response,
	})
}

// resolveConversation loads the target conversation or creates a fresh one.
// Returns created=true when a new conversation was started.
func (h *chatHandler) resolveConversation(ctx context.Context, userID string, req chatRequest) (*conversation.Conversation, bool, error) {
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			return nil, false, conversation.ErrInvalidInput
		}
		conv, err := h.store.Conversation(ctx, id, userID)
		if err != nil {
			return nil, false, err
		}
		return conv, false, nil
	}

	var agentID *uuid.UUID
	if req.AgentID != "" {
		id, err := uuid.Parse(req.AgentID)
		if err != nil {
			return nil, false, conversation.ErrInvalidInput
		}
		// Verify the agent exists and belongs to this user before linking.
		if _, err := h.store.Agent(ctx, id, userID); err != nil {
			return nil, false, err
		}
		agentID = &id
	}

	conv, err := h.store.CreateConversation(ctx, userID, "", agentID)
	if err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// generateTitle asks the model for a short title and stores it.
// Best effort: on any failure the conversation keeps an empty title.
func (h *chatHandler) generateTitle(ctx context.Context, convID uuid.UUID, userID, firstMessage string) string {
	title := h.orchestrator.GenerateTitle(ctx, firstMessage)
	if title == "" {
		return ""
	}
	if err := h.store.UpdateConversationTitle(ctx, convID, userID, title); err != nil {
		h.logger.Warn("storing generated title", "error", err, "conversation", convID)
		return ""
	}
	return title
}

// failureStatus maps a pipeline failure to an HTTP status and error code.
func failureStatus(f *chat.Failure) (int, string) {
	switch f.Kind {
	case chat.FailureEmptyHistory:
		return http.StatusBadRequest, "empty_history"
	case chat.FailureAuth:
		return http.StatusBadGateway, "model_auth"
	case chat.FailureQuota:
		return http.StatusTooManyRequests, "model_quota"
	case chat.FailureModelUnavailable:
		return http.StatusServiceUnavailable, "model_unavailable"
	default:
		return http.StatusInternalServerError, "generation_failed"
	}
}
