package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerCreateUniqueIDs(t *testing.T) {
	sm := NewSessionManager()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := sm.Create()
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "session IDs must be unique")
		seen[id] = true
	}
}

func TestSessionManagerUnknownSession(t *testing.T) {
	sm := NewSessionManager()

	_, err := sm.History("no-such-session", 0)
	assert.ErrorIs(t, err, ErrUnknownSession)

	err = sm.AddExchange("no-such-session", "q", "a")
	assert.ErrorIs(t, err, ErrUnknownSession)

	err = sm.Append("no-such-session", NewUserMessage("q"))
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestSessionManagerEnsure(t *testing.T) {
	sm := NewSessionManager()

	// Empty ID always creates a fresh session
	id := sm.Ensure("")
	require.NotEmpty(t, id)
	_, err := sm.History(id, 0)
	assert.NoError(t, err)

	// Known ID is returned as-is
	assert.Equal(t, id, sm.Ensure(id))

	// Unknown ID creates a replacement session
	other := sm.Ensure("stale-id")
	assert.NotEqual(t, "stale-id", other)
	_, err = sm.History(other, 0)
	assert.NoError(t, err)
}

func TestSessionManagerIsolation(t *testing.T) {
	sm := NewSessionManager()

	a := sm.Create()
	b := sm.Create()

	require.NoError(t, sm.AddExchange(a, "question a", "answer a"))

	msgsA, err := sm.History(a, 0)
	require.NoError(t, err)
	assert.Len(t, msgsA, 2)

	msgsB, err := sm.History(b, 0)
	require.NoError(t, err)
	assert.Empty(t, msgsB)
}

func TestSessionManagerHistoryWindow(t *testing.T) {
	sm := NewSessionManager()
	id := sm.Create()

	require.NoError(t, sm.AddExchange(id, "q1", "a1"))
	require.NoError(t, sm.AddExchange(id, "q2", "a2"))
	require.NoError(t, sm.AddExchange(id, "q3", "a3"))

	msgs, err := sm.History(id, 4)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "q2", msgs[0].Content)
	assert.Equal(t, "a3", msgs[3].Content)
}
