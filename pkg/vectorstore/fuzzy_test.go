package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestCourseMatchExactIgnoresCase(t *testing.T) {
	titles := []string{"Introduction to MCP", "Advanced Retrieval"}

	match, ok := BestCourseMatch("introduction to mcp", titles)
	assert.True(t, ok)
	assert.Equal(t, "Introduction to MCP", match)
}

func TestBestCourseMatchSubstring(t *testing.T) {
	titles := []string{"Building Toward Computer Use with Anthropic", "Prompt Compression"}

	// 輸入是標題的子字串
	match, ok := BestCourseMatch("computer use", titles)
	assert.True(t, ok)
	assert.Equal(t, "Building Toward Computer Use with Anthropic", match)

	// 標題是輸入的子字串
	match, ok = BestCourseMatch("the prompt compression course", titles)
	assert.True(t, ok)
	assert.Equal(t, "Prompt Compression", match)
}

func TestBestCourseMatchTokenOverlap(t *testing.T) {
	titles := []string{"Advanced Retrieval for AI", "Chroma Essentials"}

	// "retrieval basics" 與第一個標題重疊 1/2 詞，剛好達到門檻
	match, ok := BestCourseMatch("retrieval basics", titles)
	assert.True(t, ok)
	assert.Equal(t, "Advanced Retrieval for AI", match)
}

func TestBestCourseMatchTieBreaksLexicographically(t *testing.T) {
	// 兩個標題與輸入的重疊率相同，勝者不受目錄順序影響
	match, ok := BestCourseMatch("retrieval basics", []string{"Zesty Retrieval", "Applied Retrieval"})
	assert.True(t, ok)
	assert.Equal(t, "Applied Retrieval", match)

	match, ok = BestCourseMatch("retrieval basics", []string{"Applied Retrieval", "Zesty Retrieval"})
	assert.True(t, ok)
	assert.Equal(t, "Applied Retrieval", match)
}

func TestBestCourseMatchBelowThreshold(t *testing.T) {
	titles := []string{"Advanced Retrieval for AI"}

	_, ok := BestCourseMatch("kubernetes networking deep dive", titles)
	assert.False(t, ok)
}

func TestBestCourseMatchEmptyInput(t *testing.T) {
	_, ok := BestCourseMatch("   ", []string{"Anything"})
	assert.False(t, ok)

	_, ok = BestCourseMatch("query", nil)
	assert.False(t, ok)
}
