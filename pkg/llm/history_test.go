package llm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHistoryAddExchange(t *testing.T) {
	h := NewChatHistory()
	h.AddExchange("What is MCP?", "MCP is a protocol.")

	msgs := h.Recent(0)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "What is MCP?", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "MCP is a protocol.", msgs[1].Content)
}

func TestChatHistoryRecentTrimsOldestFirst(t *testing.T) {
	h := NewChatHistory()
	for i := 0; i < 5; i++ {
		h.AddExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	// Full history is never truncated on write
	assert.Equal(t, 10, h.Len())

	// Read-time window keeps the most recent messages, oldest first
	recent := h.Recent(4)
	require.Len(t, recent, 4)
	assert.Equal(t, "q3", recent[0].Content)
	assert.Equal(t, "a3", recent[1].Content)
	assert.Equal(t, "q4", recent[2].Content)
	assert.Equal(t, "a4", recent[3].Content)
}

func TestChatHistoryRecentNoLimit(t *testing.T) {
	h := NewChatHistory()
	h.AddExchange("q", "a")

	assert.Len(t, h.Recent(0), 2)
	assert.Len(t, h.Recent(-1), 2)
	assert.Len(t, h.Recent(100), 2)
}

func TestChatHistoryConcurrentExchanges(t *testing.T) {
	h := NewChatHistory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.AddExchange(fmt.Sprintf("q%d", n), fmt.Sprintf("a%d", n))
		}(i)
	}
	wg.Wait()

	msgs := h.Recent(0)
	require.Len(t, msgs, 100)

	// Exchanges never interleave: user/assistant always adjacent pairs
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, RoleUser, msgs[i].Role)
		assert.Equal(t, RoleAssistant, msgs[i+1].Role)
		assert.Equal(t, msgs[i].Content[1:], msgs[i+1].Content[1:])
	}
}
