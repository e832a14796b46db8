package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lectern/pkg/llm"

	"google.golang.org/genai"
)

// GeminiClient Google Gemini API client
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client with a single model and API key
func NewGeminiClient(apiKey string, model string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiClient) Provider() string {
	return "gemini"
}

// Chat implements llm.LLMClient.Chat
func (g *GeminiClient) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (*llm.ChatResponse, error) {
	apiMessages, systemInstruction := g.convertMessages(messages)

	var genaiTools []*genai.Tool
	if len(tools) > 0 {
		var fds []*genai.FunctionDeclaration
		for _, t := range tools {
			fd := &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
			}
			if t.Parameters != nil {
				// genai.Schema 與 JSON Schema 結構相容，走 JSON 轉一手即可
				schemaB, _ := json.Marshal(t.Parameters)
				var schema genai.Schema
				json.Unmarshal(schemaB, &schema)
				fd.Parameters = &schema
			}
			fds = append(fds, fd)
		}
		genaiTools = append(genaiTools, &genai.Tool{
			FunctionDeclarations: fds,
		})
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, apiMessages, &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Tools:             genaiTools,
	})
	if err != nil {
		return nil, err
	}

	result := &llm.ChatResponse{
		StopReason: llm.StopReasonStop,
	}

	if resp.UsageMetadata != nil {
		u := resp.UsageMetadata
		result.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			result.StopReason = llm.StopReasonLength
		}
		if candidate.Content == nil {
			continue
		}
		for i, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				argsB, _ := json.Marshal(part.FunctionCall.Args)
				id := part.FunctionCall.ID
				if id == "" {
					// Gemini 常常不回傳 ID，自行補一個穩定的
					id = fmt.Sprintf("call_%s_%d", part.FunctionCall.Name, i)
				}
				result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: string(argsB),
				})
			}
		}
	}

	result.Content = text.String()
	if len(result.ToolCalls) > 0 {
		result.StopReason = llm.StopReasonToolUse
	}

	return result, nil
}

// convertMessages converts message list to GenAI format
func (g *GeminiClient) convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content) {
	var genaiContents []*genai.Content
	var systemInstruction *genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			// System role as SystemInstruction
			if msg.Content != "" {
				systemInstruction = &genai.Content{
					Parts: []*genai.Part{{Text: msg.Content}},
				}
			}

		case llm.RoleTool:
			// Tool results are part of user role in Gemini
			genaiContents = append(genaiContents, &genai.Content{
				Role: llm.RoleUser,
				Parts: []*genai.Part{
					{
						FunctionResponse: &genai.FunctionResponse{
							Name:     msg.ToolName,
							Response: map[string]any{"result": msg.Content},
						},
					},
				},
			})

		case llm.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			// Gemini requires echoing tool calls before their responses
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				json.Unmarshal([]byte(tc.Arguments), &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						Name: tc.Name,
						Args: args,
					},
				})
			}
			if len(parts) > 0 {
				genaiContents = append(genaiContents, &genai.Content{
					Role:  llm.RoleModel,
					Parts: parts,
				})
			}

		default:
			if msg.Content == "" {
				continue // 略過空文本
			}
			genaiContents = append(genaiContents, &genai.Content{
				Role:  llm.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return genaiContents, systemInstruction
}

// IsTransientError implements the llm.LLMClient interface
func (g *GeminiClient) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()

	// 1. Google API common 503 Service Unavailable / Overloaded
	if strings.Contains(errMsg, "503") || strings.Contains(strings.ToLower(errMsg), "overloaded") {
		return true
	}

	// 2. 429 Too Many Requests (Rate Limit)
	if strings.Contains(errMsg, "429") || strings.Contains(strings.ToLower(errMsg), "resource exhausted") {
		return true
	}

	// 3. 500 Internal Error (Occasional Google Gemini crashes)
	if strings.Contains(errMsg, "500") || strings.Contains(strings.ToLower(errMsg), "internal error") {
		return true
	}

	return false
}
