package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat/core"
)

func TestInitializeSeedsSystemTurn(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Initialize("You are helpful."))

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleSystem, history[0].Role)
	assert.Equal(t, "You are helpful.", history[0].Content)
}

func TestInitializeTwiceFails(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Initialize("prompt"))

	err := s.Initialize("another prompt")
	assert.ErrorIs(t, err, core.ErrAlreadyInitialized)
	assert.Equal(t, 1, s.Len())
}

func TestInitializeEmptyPromptFails(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Initialize(""), core.ErrInvalidTurn)
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Initialize("prompt"))
	require.NoError(t, s.Append(core.RoleUser, "Hello"))
	require.NoError(t, s.Append(core.RoleAssistant, "Hi there"))
	require.NoError(t, s.Append(core.RoleUser, "How are you?"))

	history := s.History()
	require.Len(t, history, 4)
	assert.Equal(t, core.RoleSystem, history[0].Role)
	assert.Equal(t, core.RoleUser, history[1].Role)
	assert.Equal(t, "Hello", history[1].Content)
	assert.Equal(t, core.RoleAssistant, history[2].Role)
	assert.Equal(t, core.RoleUser, history[3].Role)
}

func TestAppendRejectsInvalidTurns(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Initialize("prompt"))

	tests := []struct {
		name    string
		role    core.Role
		content string
	}{
		{"empty content", core.RoleUser, ""},
		{"system role", core.RoleSystem, "sneaky prompt"},
		{"unknown role", core.Role("moderator"), "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Append(tt.role, tt.content), core.ErrInvalidTurn)
		})
	}
	assert.Equal(t, 1, s.Len())
}

func TestAppendBeforeInitializeFails(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Append(core.RoleUser, "hello"), core.ErrInvalidTurn)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Initialize("prompt"))

	history := s.History()
	history[0].Content = "mutated"

	assert.Equal(t, "prompt", s.History()[0].Content)
}
