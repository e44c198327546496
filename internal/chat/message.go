package chat

import (
	"errors"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// Role identifies the author of a conversation turn.
// The set is closed: anything else is rejected at the boundary.
type Role string

const (
	// RoleUser is a human turn.
	RoleUser Role = "user"
	// RoleModel is an assistant turn.
	RoleModel Role = "model"
	// RoleTool is a tool output turn. Tool turns may repeat consecutively
	// because each one carries an independent tool result.
	RoleTool Role = "tool"
)

// Valid reports whether r is one of the three recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModel, RoleTool:
		return true
	}
	return false
}

// ErrInvalidMessage indicates a message failed boundary validation.
var ErrInvalidMessage = errors.New("invalid message")

// Message is a single conversation turn.
// Content is always trimmed and non-empty for messages built via NewMessage;
// raw inbound messages go through CleanHistory before the orchestrator sees them.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage validates and constructs a Message.
// The content is trimmed; empty content or an unrecognized role is rejected.
func NewMessage(role Role, content string) (Message, error) {
	if !role.Valid() {
		return Message{}, ErrInvalidMessage
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, ErrInvalidMessage
	}
	return Message{Role: role, Content: content}, nil
}

// valid reports whether m would pass NewMessage unchanged apart from trimming.
func (m Message) valid() bool {
	return m.Role.Valid() && strings.TrimSpace(m.Content) != ""
}

// AgentContext carries the optional persona and rules of a custom agent.
// Both fields are free text; an empty field falls back to the built-in
// default when the prompt is composed. Read-only input.
type AgentContext struct {
	Persona string `json:"persona,omitempty"`
	Rules   string `json:"rules,omitempty"`
}

// empty reports whether the context carries no instructions at all.
func (a *AgentContext) empty() bool {
	return a == nil || (strings.TrimSpace(a.Persona) == "" && strings.TrimSpace(a.Rules) == "")
}

// toGenkitMessages converts validated messages to the Genkit wire type.
func toGenkitMessages(msgs []Message) []*ai.Message {
	out := make([]*ai.Message, len(msgs))
	for i, m := range msgs {
		var role ai.Role
		switch m.Role {
		case RoleModel:
			role = ai.RoleModel
		case RoleTool:
			role = ai.RoleTool
		default:
			role = ai.RoleUser
		}
		out[i] = ai.NewMessage(role, nil, ai.NewTextPart(m.Content))
	}
	return out
}
