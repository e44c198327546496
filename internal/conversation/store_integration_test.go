package conversation

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillchat/quill/internal/chat"
	"github.com/quillchat/quill/internal/testutil"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	store, err := NewStore(db.Pool, testutil.DiscardLogger())
	require.NoError(t, err)
	return store
}

func TestStore_ConversationLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "Trip planning", nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, conv.ID)
	assert.Equal(t, "alice", conv.OwnerID)
	assert.Equal(t, "Trip planning", conv.Title)
	assert.Nil(t, conv.AgentID)

	got, err := store.Conversation(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	// Another owner cannot see it.
	_, err = store.Conversation(ctx, conv.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpdateConversationTitle(ctx, conv.ID, "alice", "Lyon trip"))
	got, err = store.Conversation(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Lyon trip", got.Title)

	// Owner scoping applies to deletes too.
	assert.ErrorIs(t, store.DeleteConversation(ctx, conv.ID, "bob"), ErrNotFound)
	require.NoError(t, store.DeleteConversation(ctx, conv.ID, "alice"))
	_, err = store.Conversation(ctx, conv.ID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CreateConversation_Validation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateConversation(ctx, "  ", "title", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Overlong titles are truncated, not rejected.
	conv, err := store.CreateConversation(ctx, "alice", strings.Repeat("x", 300), nil)
	require.NoError(t, err)
	assert.Len(t, []rune(conv.Title), TitleMaxLength)
}

func TestStore_ListConversations(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := store.CreateConversation(ctx, "alice", title, nil)
		require.NoError(t, err)
	}
	_, err := store.CreateConversation(ctx, "bob", "bob's thread", nil)
	require.NoError(t, err)

	list, err := store.ListConversations(ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, c := range list {
		assert.Equal(t, "alice", c.OwnerID)
	}

	page, err := store.ListConversations(ctx, "alice", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := store.ListConversations(ctx, "alice", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	n, err := store.CountConversations(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_AppendMessagesAndHistory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "", nil)
	require.NoError(t, err)

	require.NoError(t, store.AppendMessages(ctx, conv.ID, []chat.Message{
		{Role: chat.RoleUser, Content: "Bonjour"},
		{Role: chat.RoleModel, Content: "Bonjour ! Comment puis-je vous aider ?"},
	}))
	require.NoError(t, store.AppendMessages(ctx, conv.ID, []chat.Message{
		{Role: chat.RoleUser, Content: "Quelle heure est-il ?"},
	}))

	history, err := store.History(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Sequence numbers are consecutive from 1 and order is oldest first.
	for i, m := range history {
		assert.Equal(t, i+1, m.SequenceNumber)
	}
	assert.Equal(t, chat.RoleUser, history[0].Role)
	assert.Equal(t, "Bonjour", history[0].Content)
	assert.Equal(t, "Quelle heure est-il ?", history[2].Content)

	// A limit keeps the most recent turns but still returns them oldest first.
	recent, err := store.History(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 2, recent[0].SequenceNumber)
	assert.Equal(t, 3, recent[1].SequenceNumber)

	chatHistory, err := store.ChatHistory(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, chatHistory, 3)
	assert.Equal(t, chat.Message{Role: chat.RoleUser, Content: "Bonjour"}, chatHistory[0])

	n, err := store.CountMessages(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_AppendMessages_Validation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "", nil)
	require.NoError(t, err)

	assert.NoError(t, store.AppendMessages(ctx, conv.ID, nil), "empty append is a no-op")

	err = store.AppendMessages(ctx, conv.ID, []chat.Message{{Role: "system", Content: "x"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = store.AppendMessages(ctx, conv.ID, []chat.Message{{Role: chat.RoleUser, Content: "  "}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = store.AppendMessages(ctx, uuid.New(), []chat.Message{{Role: chat.RoleUser, Content: "hello"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

// Concurrent appends to the same conversation must not race for sequence
// numbers; the per-conversation row lock serializes them.
func TestStore_AppendMessages_Concurrent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "", nil)
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.AppendMessages(ctx, conv.ID, []chat.Message{
				{Role: chat.RoleUser, Content: "message"},
				{Role: chat.RoleModel, Content: "reply"},
			})
			assert.NoError(t, err, "writer %d", i)
		}(i)
	}
	wg.Wait()

	history, err := store.History(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, writers*2)
	for i, m := range history {
		assert.Equal(t, i+1, m.SequenceNumber, "sequence numbers must be gapless")
	}
}

func TestStore_AgentLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	agent, err := store.CreateAgent(ctx, "alice", "Pirate", "You are a pirate.", "Say arr.")
	require.NoError(t, err)
	assert.Equal(t, "Pirate", agent.Name)

	_, err = store.CreateAgent(ctx, "alice", "  ", "p", "r")
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := store.Agent(ctx, agent.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "You are a pirate.", got.Persona)

	_, err = store.Agent(ctx, agent.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpdateAgent(ctx, agent.ID, "alice", "Corsair", "You are a corsair.", "Say ahoy."))
	got, err = store.Agent(ctx, agent.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Corsair", got.Name)
	assert.Equal(t, "Say ahoy.", got.Rules)

	err = store.UpdateAgent(ctx, agent.ID, "alice", " ", "p", "r")
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := store.ListAgents(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteAgent(ctx, agent.ID, "alice"))
	assert.ErrorIs(t, store.DeleteAgent(ctx, agent.ID, "alice"), ErrNotFound)
}

// Deleting an agent detaches it from conversations instead of deleting them.
func TestStore_DeleteAgent_DetachesConversations(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	agent, err := store.CreateAgent(ctx, "alice", "Pirate", "p", "r")
	require.NoError(t, err)

	conv, err := store.CreateConversation(ctx, "alice", "with agent", &agent.ID)
	require.NoError(t, err)
	require.NotNil(t, conv.AgentID)

	require.NoError(t, store.DeleteAgent(ctx, agent.ID, "alice"))

	got, err := store.Conversation(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, got.AgentID)
}

func TestStore_DeleteConversation_CascadesMessages(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "alice", "", nil)
	require.NoError(t, err)
	require.NoError(t, store.AppendMessages(ctx, conv.ID, []chat.Message{
		{Role: chat.RoleUser, Content: "hello"},
	}))

	require.NoError(t, store.DeleteConversation(ctx, conv.ID, "alice"))

	n, err := store.CountMessages(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
