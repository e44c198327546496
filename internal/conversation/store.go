package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillchat/quill/internal/chat"
)

// conversationCols is the standard SELECT column list for scanConversation.
const conversationCols = `id, owner_id, agent_id, title, created_at, updated_at`

// agentCols is the standard SELECT column list for scanAgent.
const agentCols = `id, owner_id, name, persona, rules, created_at, updated_at`

// Store manages conversation persistence backed by PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines; within one
// conversation, message ordering is serialized by a per-conversation row
// lock taken inside AppendMessages' transaction.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a conversation Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// ========== Conversations ==========

// CreateConversation creates a new conversation for the given owner.
// agentID may be nil for a plain conversation.
func (s *Store) CreateConversation(ctx context.Context, ownerID, title string, agentID *uuid.UUID) (*Conversation, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	if len([]rune(title)) > TitleMaxLength {
		title = string([]rune(title)[:TitleMaxLength])
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (owner_id, agent_id, title)
		 VALUES ($1, $2, $3)
		 RETURNING `+conversationCols,
		ownerID, agentID, title)

	conv, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	s.logger.Debug("created conversation", "id", conv.ID, "owner", ownerID)
	return conv, nil
}

// Conversation retrieves one conversation owned by ownerID.
func (s *Store) Conversation(ctx context.Context, id uuid.UUID, ownerID string) (*Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+conversationCols+` FROM conversations WHERE id = $1 AND owner_id = $2`,
		id, ownerID)

	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return conv, nil
}

// ListConversations lists an owner's conversations, most recently updated first.
func (s *Store) ListConversations(ctx context.Context, ownerID string, limit, offset int) ([]*Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+conversationCols+` FROM conversations
		 WHERE owner_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return out, nil
}

// UpdateConversationTitle sets the title of an owned conversation.
func (s *Store) UpdateConversationTitle(ctx context.Context, id uuid.UUID, ownerID, title string) error {
	title = strings.TrimSpace(title)
	if len([]rune(title)) > TitleMaxLength {
		title = string([]rune(title)[:TitleMaxLength])
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE conversations SET title = $3, updated_at = now()
		 WHERE id = $1 AND owner_id = $2`,
		id, ownerID, title)
	if err != nil {
		return fmt.Errorf("updating conversation title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation deletes an owned conversation and all its messages (CASCADE).
func (s *Store) DeleteConversation(ctx context.Context, id uuid.UUID, ownerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Debug("deleted conversation", "id", id)
	return nil
}

// ========== Messages ==========

// AppendMessages appends messages to a conversation, assigning consecutive
// sequence numbers. The whole append runs in one transaction holding a
// per-conversation row lock, so concurrent appends to the same conversation
// serialize instead of racing for sequence numbers.
func (s *Store) AppendMessages(ctx context.Context, conversationID uuid.UUID, messages []chat.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for _, m := range messages {
		if !m.Role.Valid() || strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message must have a recognized role and non-empty content", ErrInvalidInput)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Row lock: serializes appends per conversation.
	var locked uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, conversationID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("locking conversation %s: %w", conversationID, err)
	}

	var next int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM messages WHERE conversation_id = $1`,
		conversationID).Scan(&next); err != nil {
		return fmt.Errorf("computing next sequence number: %w", err)
	}

	for i, m := range messages {
		if _, err := tx.Exec(ctx,
			`INSERT INTO messages (conversation_id, role, content, sequence_number)
			 VALUES ($1, $2, $3, $4)`,
			conversationID, string(m.Role), m.Content, next+i); err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID); err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing append: %w", err)
	}
	s.logger.Debug("appended messages", "conversation", conversationID, "count", len(messages))
	return nil
}

// History returns a conversation's messages in sequence order.
// limit <= 0 means no limit; otherwise the most recent limit messages are
// returned, still oldest first.
func (s *Store) History(ctx context.Context, conversationID uuid.UUID, limit int) ([]StoredMessage, error) {
	query := `SELECT id, conversation_id, role, content, sequence_number, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY sequence_number`
	args := []any{conversationID}
	if limit > 0 {
		query = `SELECT * FROM (
			SELECT id, conversation_id, role, content, sequence_number, created_at
			FROM messages WHERE conversation_id = $1
			ORDER BY sequence_number DESC LIMIT $2
		) recent ORDER BY sequence_number`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var out []StoredMessage
	for rows.Next() {
		var m StoredMessage
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.SequenceNumber, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = chat.Role(role)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return out, nil
}

// ChatHistory returns the conversation's messages as orchestrator input.
func (s *Store) ChatHistory(ctx context.Context, conversationID uuid.UUID, limit int) ([]chat.Message, error) {
	stored, err := s.History(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]chat.Message, len(stored))
	for i, m := range stored {
		out[i] = m.Message()
	}
	return out, nil
}

// ========== Agents ==========

// CreateAgent stores a new custom agent.
func (s *Store) CreateAgent(ctx context.Context, ownerID, name, persona, rules string) (*Agent, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: owner and name are required", ErrInvalidInput)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO agents (owner_id, name, persona, rules)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+agentCols,
		ownerID, strings.TrimSpace(name), persona, rules)

	agent, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	s.logger.Debug("created agent", "id", agent.ID, "owner", ownerID)
	return agent, nil
}

// Agent retrieves one agent owned by ownerID.
func (s *Store) Agent(ctx context.Context, id uuid.UUID, ownerID string) (*Agent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+agentCols+` FROM agents WHERE id = $1 AND owner_id = $2`, id, ownerID)

	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting agent %s: %w", id, err)
	}
	return agent, nil
}

// ListAgents lists an owner's agents by name.
func (s *Store) ListAgents(ctx context.Context, ownerID string) ([]*Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentCols+` FROM agents WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var out []*Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		out = append(out, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return out, nil
}

// UpdateAgent replaces an agent's name, persona and rules.
func (s *Store) UpdateAgent(ctx context.Context, id uuid.UUID, ownerID, name, persona, rules string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents SET name = $3, persona = $4, rules = $5, updated_at = now()
		 WHERE id = $1 AND owner_id = $2`,
		id, ownerID, strings.TrimSpace(name), persona, rules)
	if err != nil {
		return fmt.Errorf("updating agent %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAgent deletes an owned agent. Conversations that referenced it keep
// running without instructions (agent_id is set NULL by the schema).
func (s *Store) DeleteAgent(ctx context.Context, id uuid.UUID, ownerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM agents WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting agent %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Stats ==========

// CountConversations returns the number of conversations an owner has.
func (s *Store) CountConversations(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversations WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting conversations: %w", err)
	}
	return n, nil
}

// CountMessages returns the number of messages across an owner's conversations.
func (s *Store) CountMessages(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE c.owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

// ========== Scan helpers ==========

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	if err := row.Scan(&c.ID, &c.OwnerID, &c.AgentID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanAgent(row pgx.Row) (*Agent, error) {
	var a Agent
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Persona, &a.Rules, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
