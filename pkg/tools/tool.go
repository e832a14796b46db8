package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lectern/pkg/llm"
)

var (
	// ErrDuplicateTool 表示註冊了重複的工具名稱
	ErrDuplicateTool = errors.New("tools: duplicate tool name")
	// ErrUnknownTool 表示模型要求執行未註冊的工具
	ErrUnknownTool = errors.New("tools: unknown tool")
)

// Source 回答引用的一筆來源
type Source struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	Link         string `json:"link,omitempty"`
}

// Text 來源的顯示文字，如 "Course Title - Lesson 1"
func (s Source) Text() string {
	if s.LessonNumber != nil {
		return fmt.Sprintf("%s - Lesson %d", s.CourseTitle, *s.LessonNumber)
	}
	return s.CourseTitle
}

// ToolResult 單次工具執行的結果
// Content 回給模型做合成；Sources 由呼叫端彙整後回給使用者。
type ToolResult struct {
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// Tool 可供 Agent 調用的工具
type Tool interface {
	// Name 工具的唯一識別名稱
	Name() string

	// Schema 回傳給模型的工具描述與參數定義
	Schema() llm.ToolSchema

	// Execute 以解析後的參數執行工具
	Execute(ctx context.Context, args map[string]any) (*ToolResult, error)
}

// Registry acts as a central inventory for all tools available to the Agent.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string // 保留註冊順序，Schemas 輸出才穩定
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, dup := r.tools[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Schemas returns the schemas of all registered tools in registration order.
func (r *Registry) Schemas() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.tools[name].Schema())
	}
	return schemas
}

// Execute dispatches a call to the named tool.
// Unknown tool names are an error for the caller to surface.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Execute(ctx, args)
}
