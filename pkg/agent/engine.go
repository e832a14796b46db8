// Package agent implements the single-pass reasoning loop: one decision
// round where the model may call tools, then one synthesis round without
// tool schemas to produce the final answer.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"lectern/pkg/llm"
	"lectern/pkg/tools"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultSystemPrompt 預設的系統提示，約束工具使用與回答格式
const DefaultSystemPrompt = `You are an AI assistant specialized in course materials and educational content with access to search and outline tools for course information.

Tool Usage Guidelines:
- **One tool round**: You get a single round of tool calls. Gather everything you need in that round.
- **Content searches**: Use the search tool for questions about specific course content or detailed educational materials
- **Course outlines**: Use the outline tool for questions about course structure, syllabi, lesson lists, or course overviews
- Synthesize tool results into accurate, fact-based responses
- If tools yield no results, state this clearly without offering alternatives

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without using tools
- **Course-specific content questions**: Use the search tool first, then answer
- **Course outline/structure questions**: Use the outline tool first, then answer
- **No meta-commentary**:
 - Provide direct answers only — no reasoning process, tool explanations, or question-type analysis
 - Do not mention "based on the search results" or "based on the outline"

All responses must be:
1. **Brief, Concise and focused** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
4. **Example-supported** - Include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// Result 一次問答的完整產出
type Result struct {
	Answer  string         `json:"answer"`
	Sources []tools.Source `json:"sources"`
	Usage   *llm.Usage     `json:"usage,omitempty"`
}

// Engine 驅動決策與合成兩階段的推理流程
type Engine struct {
	client       llm.LLMClient
	registry     *tools.Registry
	systemPrompt string
}

// NewEngine 建立推理引擎，systemPrompt 為空時使用預設提示
func NewEngine(client llm.LLMClient, registry *tools.Registry, systemPrompt string) *Engine {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Engine{
		client:       client,
		registry:     registry,
		systemPrompt: systemPrompt,
	}
}

// Generate 回答一個問題
//
// history 為該 Session 先前的問答訊息 (最舊在前)，不含本次問題。
// 模型至多觸發一輪工具調用，合成階段不再提供工具。
func (e *Engine) Generate(ctx context.Context, query string, history []llm.Message) (*Result, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.NewSystemMessage(e.systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, llm.NewUserMessage(query))

	// 決策階段：附上工具，讓模型決定要直接回答還是先檢索
	resp, err := e.client.Chat(ctx, messages, e.registry.Schemas())
	if err != nil {
		return nil, fmt.Errorf("agent: decision round: %w", err)
	}

	if !resp.HasToolCalls() {
		return &Result{Answer: resp.Content, Usage: resp.Usage}, nil
	}

	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	var sources []tools.Source
	for _, call := range resp.ToolCalls {
		args := map[string]any{}
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				return nil, fmt.Errorf("agent: tool %q arguments: %w", call.Name, err)
			}
		}

		slog.Info("Executing tool", "tool", call.Name, "args", call.Arguments)

		result, err := e.registry.Execute(ctx, call.Name, args)
		if err != nil {
			return nil, fmt.Errorf("agent: tool %q: %w", call.Name, err)
		}

		sources = append(sources, result.Sources...)
		messages = append(messages, llm.NewToolMessage(call, result.Content))
	}

	// 合成階段：不附工具，強制模型輸出最終答案
	final, err := e.client.Chat(ctx, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("agent: synthesis round: %w", err)
	}

	usage := final.Usage
	if usage != nil && resp.Usage != nil {
		usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens + final.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens + final.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens + final.Usage.TotalTokens,
		}
	}

	return &Result{
		Answer:  final.Content,
		Sources: sources,
		Usage:   usage,
	}, nil
}
