package chat

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		role    Role
		content string
		want    Message
		wantErr bool
	}{
		{
			name:    "valid user message",
			role:    RoleUser,
			content: "hello",
			want:    Message{Role: RoleUser, Content: "hello"},
		},
		{
			name:    "content is trimmed",
			role:    RoleModel,
			content: "  hi  ",
			want:    Message{Role: RoleModel, Content: "hi"},
		},
		{
			name:    "tool role accepted",
			role:    RoleTool,
			content: "result",
			want:    Message{Role: RoleTool, Content: "result"},
		},
		{
			name:    "unknown role rejected",
			role:    Role("system"),
			content: "hello",
			wantErr: true,
		},
		{
			name:    "blank content rejected",
			role:    RoleUser,
			content: "   \n\t",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewMessage(tt.role, tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleModel.Valid())
	assert.True(t, RoleTool.Valid())
	assert.False(t, Role("system").Valid())
	assert.False(t, Role("").Valid())
}

func TestToGenkitMessages(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		{Role: RoleUser, Content: "question"},
		{Role: RoleModel, Content: "answer"},
		{Role: RoleTool, Content: "tool output"},
	}

	got := toGenkitMessages(msgs)
	require.Len(t, got, 3)

	assert.Equal(t, ai.RoleUser, got[0].Role)
	assert.Equal(t, "question", got[0].Text())
	assert.Equal(t, ai.RoleModel, got[1].Role)
	assert.Equal(t, "answer", got[1].Text())
	assert.Equal(t, ai.RoleTool, got[2].Role)
	assert.Equal(t, "tool output", got[2].Text())
}

func TestAgentContext_Empty(t *testing.T) {
	t.Parallel()

	var nilCtx *AgentContext
	assert.True(t, nilCtx.empty())
	assert.True(t, (&AgentContext{}).empty())
	assert.True(t, (&AgentContext{Persona: "  ", Rules: "\t"}).empty())
	assert.False(t, (&AgentContext{Persona: "p"}).empty())
	assert.False(t, (&AgentContext{Rules: "r"}).empty())
}
