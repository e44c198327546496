// Package conversation persists conversations, their messages and custom
// agents in PostgreSQL. It is the gateway the HTTP layer composes with the
// chat orchestrator: the orchestrator itself never touches storage.
package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quillchat/quill/internal/chat"
)

// TitleMaxLength bounds conversation titles.
const TitleMaxLength = 100

var (
	// ErrNotFound indicates the requested record does not exist or belongs
	// to another owner.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates a record failed validation before storage.
	ErrInvalidInput = errors.New("invalid input")
)

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID        uuid.UUID
	OwnerID   string
	AgentID   *uuid.UUID // nil = plain conversation, no custom agent
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Agent is a stored custom agent: a named persona/rules pair.
type Agent struct {
	ID        uuid.UUID
	OwnerID   string
	Name      string
	Persona   string
	Rules     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Context converts the stored record into the orchestrator's read-only input.
func (a *Agent) Context() *chat.AgentContext {
	if a == nil {
		return nil
	}
	return &chat.AgentContext{Persona: a.Persona, Rules: a.Rules}
}

// StoredMessage is one persisted turn with its position in the thread.
type StoredMessage struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           chat.Role
	Content        string
	SequenceNumber int
	CreatedAt      time.Time
}

// Message converts the stored record to the orchestrator's message type.
func (m StoredMessage) Message() chat.Message {
	return chat.Message{Role: m.Role, Content: m.Content}
}
