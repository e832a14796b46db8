package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectern/pkg/llm"
	"lectern/pkg/tools"
)

// recordedCall 留存一次 Chat 的輸入，供事後斷言
type recordedCall struct {
	messages []llm.Message
	tools    []llm.ToolSchema
}

// scriptedLLM 依序回放回應，並記錄每次呼叫
type scriptedLLM struct {
	responses []*llm.ChatResponse
	errs      []error
	calls     []recordedCall
}

func (c *scriptedLLM) Chat(ctx context.Context, messages []llm.Message, schemas []llm.ToolSchema) (*llm.ChatResponse, error) {
	idx := len(c.calls)
	c.calls = append(c.calls, recordedCall{messages: messages, tools: schemas})
	if idx < len(c.errs) && c.errs[idx] != nil {
		return nil, c.errs[idx]
	}
	if idx >= len(c.responses) {
		return nil, errors.New("scriptedLLM: unexpected extra call")
	}
	return c.responses[idx], nil
}

func (c *scriptedLLM) IsTransientError(err error) bool { return false }

// echoTool 回傳固定內容與來源
type echoTool struct {
	name    string
	content string
	sources []tools.Source
	seen    []map[string]any
}

func (t *echoTool) Name() string { return t.name }

func (t *echoTool) Schema() llm.ToolSchema {
	return llm.ToolSchema{Name: t.name, Description: "echo"}
}

func (t *echoTool) Execute(ctx context.Context, args map[string]any) (*tools.ToolResult, error) {
	t.seen = append(t.seen, args)
	return &tools.ToolResult{Content: t.content, Sources: t.sources}, nil
}

func newRegistry(t *testing.T, toolList ...tools.Tool) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	for _, tool := range toolList {
		require.NoError(t, reg.Register(tool))
	}
	return reg
}

func TestGenerateDirectAnswer(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.ChatResponse{
		{Content: "Paris is the capital of France.", StopReason: llm.StopReasonStop},
	}}
	engine := NewEngine(client, newRegistry(t, &echoTool{name: "search"}), "")

	result, err := engine.Generate(context.Background(), "What is the capital of France?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", result.Answer)
	assert.Empty(t, result.Sources)

	// 決策階段要附上工具定義
	require.Len(t, client.calls, 1)
	require.Len(t, client.calls[0].tools, 1)
	assert.Equal(t, "search", client.calls[0].tools[0].Name)

	// system + user
	require.Len(t, client.calls[0].messages, 2)
	assert.Equal(t, llm.RoleSystem, client.calls[0].messages[0].Role)
	assert.Equal(t, "What is the capital of France?", client.calls[0].messages[1].Content)
}

func TestGenerateToolRoundThenSynthesis(t *testing.T) {
	one := 1
	tool := &echoTool{
		name:    "search",
		content: "[Course - Lesson 1]\nsome content",
		sources: []tools.Source{{CourseTitle: "Course", LessonNumber: &one}},
	}
	client := &scriptedLLM{responses: []*llm.ChatResponse{
		{
			ToolCalls:  []llm.ToolCall{{ID: "call_1", Name: "search", Arguments: `{"query":"topic"}`}},
			StopReason: llm.StopReasonToolUse,
			Usage:      &llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
		{
			Content:    "Here is the answer.",
			StopReason: llm.StopReasonStop,
			Usage:      &llm.Usage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28},
		},
	}}
	engine := NewEngine(client, newRegistry(t, tool), "")

	result, err := engine.Generate(context.Background(), "Tell me about the topic", nil)
	require.NoError(t, err)
	assert.Equal(t, "Here is the answer.", result.Answer)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Course - Lesson 1", result.Sources[0].Text())

	require.NotNil(t, result.Usage)
	assert.Equal(t, 43, result.Usage.TotalTokens)

	// 工具收到解析後的參數
	require.Len(t, tool.seen, 1)
	assert.Equal(t, "topic", tool.seen[0]["query"])

	require.Len(t, client.calls, 2)

	// 合成階段不再提供工具
	assert.Nil(t, client.calls[1].tools)

	// 合成訊息串：system, user, assistant(tool calls), tool result
	msgs := client.calls[1].messages
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleAssistant, msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, llm.RoleTool, msgs[3].Role)
	assert.Equal(t, "call_1", msgs[3].ToolCallID)
	assert.Equal(t, tool.content, msgs[3].Content)
}

func TestGenerateAggregatesSourcesAcrossCalls(t *testing.T) {
	searchTool := &echoTool{
		name:    "search",
		content: "search result",
		sources: []tools.Source{{CourseTitle: "Course A"}},
	}
	outlineTool := &echoTool{
		name:    "outline",
		content: "outline result",
		sources: []tools.Source{{CourseTitle: "Course B"}},
	}
	client := &scriptedLLM{responses: []*llm.ChatResponse{
		{
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "search", Arguments: `{"query":"x"}`},
				{ID: "call_2", Name: "outline", Arguments: `{"course_name":"b"}`},
			},
			StopReason: llm.StopReasonToolUse,
		},
		{Content: "combined", StopReason: llm.StopReasonStop},
	}}
	engine := NewEngine(client, newRegistry(t, searchTool, outlineTool), "")

	result, err := engine.Generate(context.Background(), "question", nil)
	require.NoError(t, err)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "Course A", result.Sources[0].CourseTitle)
	assert.Equal(t, "Course B", result.Sources[1].CourseTitle)
}

func TestGenerateIncludesHistory(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.ChatResponse{
		{Content: "follow-up answer", StopReason: llm.StopReasonStop},
	}}
	engine := NewEngine(client, newRegistry(t), "custom prompt")

	history := []llm.Message{
		llm.NewUserMessage("earlier question"),
		llm.NewAssistantMessage("earlier answer"),
	}
	_, err := engine.Generate(context.Background(), "follow-up", history)
	require.NoError(t, err)

	msgs := client.calls[0].messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "custom prompt", msgs[0].Content)
	assert.Equal(t, "earlier question", msgs[1].Content)
	assert.Equal(t, "earlier answer", msgs[2].Content)
	assert.Equal(t, "follow-up", msgs[3].Content)
}

func TestGenerateUnknownToolFails(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.ChatResponse{
		{
			ToolCalls:  []llm.ToolCall{{ID: "call_1", Name: "ghost", Arguments: `{}`}},
			StopReason: llm.StopReasonToolUse,
		},
	}}
	engine := NewEngine(client, newRegistry(t), "")

	_, err := engine.Generate(context.Background(), "question", nil)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)
}

func TestGenerateBadToolArgumentsFail(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.ChatResponse{
		{
			ToolCalls:  []llm.ToolCall{{ID: "call_1", Name: "search", Arguments: `not json`}},
			StopReason: llm.StopReasonToolUse,
		},
	}}
	engine := NewEngine(client, newRegistry(t, &echoTool{name: "search"}), "")

	_, err := engine.Generate(context.Background(), "question", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arguments")
}

func TestGenerateDecisionRoundErrorPropagates(t *testing.T) {
	client := &scriptedLLM{errs: []error{errors.New("provider down")}}
	engine := NewEngine(client, newRegistry(t), "")

	_, err := engine.Generate(context.Background(), "question", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decision round")
	assert.Contains(t, err.Error(), "provider down")
}
