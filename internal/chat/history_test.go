package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []Message
		want  []Message
	}{
		{
			name:  "empty input",
			input: nil,
			want:  nil,
		},
		{
			name: "valid alternating history passes through",
			input: []Message{
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: "hi"},
				{Role: RoleUser, Content: "how are you?"},
			},
			want: []Message{
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: "hi"},
				{Role: RoleUser, Content: "how are you?"},
			},
		},
		{
			name: "unknown role dropped",
			input: []Message{
				{Role: RoleUser, Content: "hello"},
				{Role: Role("system"), Content: "be nice"},
				{Role: RoleModel, Content: "hi"},
			},
			want: []Message{
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: "hi"},
			},
		},
		{
			name: "blank content dropped",
			input: []Message{
				{Role: RoleUser, Content: "   "},
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: ""},
				{Role: RoleModel, Content: "hi"},
			},
			want: []Message{
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: "hi"},
			},
		},
		{
			name: "consecutive same role keeps the first",
			input: []Message{
				{Role: RoleUser, Content: "first"},
				{Role: RoleUser, Content: "second"},
				{Role: RoleModel, Content: "reply"},
			},
			want: []Message{
				{Role: RoleUser, Content: "first"},
				{Role: RoleModel, Content: "reply"},
			},
		},
		{
			name: "consecutive tool turns are kept",
			input: []Message{
				{Role: RoleUser, Content: "search for two things"},
				{Role: RoleModel, Content: "calling tools"},
				{Role: RoleTool, Content: "result one"},
				{Role: RoleTool, Content: "result two"},
				{Role: RoleModel, Content: "here is what I found"},
			},
			want: []Message{
				{Role: RoleUser, Content: "search for two things"},
				{Role: RoleModel, Content: "calling tools"},
				{Role: RoleTool, Content: "result one"},
				{Role: RoleTool, Content: "result two"},
				{Role: RoleModel, Content: "here is what I found"},
			},
		},
		{
			name: "leading model turns discarded",
			input: []Message{
				{Role: RoleModel, Content: "welcome!"},
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: "hi"},
			},
			want: []Message{
				{Role: RoleUser, Content: "hello"},
				{Role: RoleModel, Content: "hi"},
			},
		},
		{
			name: "no user turn yields nil",
			input: []Message{
				{Role: RoleModel, Content: "welcome!"},
				{Role: RoleTool, Content: "stray output"},
			},
			want: nil,
		},
		{
			name: "content is trimmed",
			input: []Message{
				{Role: RoleUser, Content: "  hello  "},
			},
			want: []Message{
				{Role: RoleUser, Content: "hello"},
			},
		},
		{
			name: "all invalid yields nil",
			input: []Message{
				{Role: Role(""), Content: "x"},
				{Role: RoleUser, Content: "   "},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CleanHistory(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestCleanHistory_Properties checks the structural guarantees on arbitrary
// mixed input: a non-empty result starts with a user turn and never contains
// two consecutive non-tool turns of the same role.
func TestCleanHistory_Properties(t *testing.T) {
	t.Parallel()

	input := []Message{
		{Role: RoleModel, Content: "greeting"},
		{Role: Role("weird"), Content: "noise"},
		{Role: RoleUser, Content: "a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleModel, Content: ""},
		{Role: RoleModel, Content: "c"},
		{Role: RoleModel, Content: "d"},
		{Role: RoleTool, Content: "t1"},
		{Role: RoleTool, Content: "t2"},
		{Role: RoleUser, Content: "  e  "},
	}

	got := CleanHistory(input)
	require.NotEmpty(t, got)
	assert.Equal(t, RoleUser, got[0].Role)

	for i := 1; i < len(got); i++ {
		if got[i].Role == RoleTool {
			continue
		}
		assert.NotEqual(t, got[i-1].Role, got[i].Role,
			"consecutive non-tool turns at index %d", i)
	}
}

func TestCleanHistory_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := []Message{
		{Role: RoleUser, Content: "  padded  "},
		{Role: RoleModel, Content: "reply"},
	}

	_ = CleanHistory(input)
	assert.Equal(t, "  padded  ", input[0].Content)
}
