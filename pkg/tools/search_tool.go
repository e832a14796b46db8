package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lectern/pkg/llm"
	"lectern/pkg/vectorstore"
)

// SearchToolName 課程內容語意檢索工具的名稱
const SearchToolName = "search_course_content"

// SearchTool 在課程內容中做語意檢索，支援課程與單元篩選
type SearchTool struct {
	store vectorstore.Store
	limit int
}

// NewSearchTool 建立檢索工具，limit <= 0 使用向量庫預設上限
func NewSearchTool(store vectorstore.Store, limit int) *SearchTool {
	return &SearchTool{store: store, limit: limit}
}

func (t *SearchTool) Name() string {
	return SearchToolName
}

func (t *SearchTool) Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return &ToolResult{Content: "Search error: 'query' parameter is required."}, nil
	}

	courseName, _ := args["course_name"].(string)

	var lessonNumber *int
	if raw, ok := args["lesson_number"]; ok {
		// JSON 數字解出來是 float64
		switch v := raw.(type) {
		case float64:
			n := int(v)
			lessonNumber = &n
		case int:
			n := v
			lessonNumber = &n
		}
	}

	// 單元篩選必須伴隨課程名稱，否則編號沒有意義
	if lessonNumber != nil && strings.TrimSpace(courseName) == "" {
		return &ToolResult{
			Content: "A lesson number filter requires a course name. Please specify which course to search.",
		}, nil
	}

	resolvedCourse := ""
	if strings.TrimSpace(courseName) != "" {
		resolved, err := t.store.ResolveCourseName(ctx, courseName)
		if err != nil {
			if errors.Is(err, vectorstore.ErrCourseNotFound) {
				return &ToolResult{
					Content: fmt.Sprintf("No course found matching '%s'", courseName),
				}, nil
			}
			return nil, err
		}
		resolvedCourse = resolved
	}

	results, err := t.store.Search(ctx, query, resolvedCourse, lessonNumber, t.limit)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		var filter strings.Builder
		if resolvedCourse != "" {
			fmt.Fprintf(&filter, " in course '%s'", resolvedCourse)
		}
		if lessonNumber != nil {
			fmt.Fprintf(&filter, " in lesson %d", *lessonNumber)
		}
		return &ToolResult{
			Content: fmt.Sprintf("No relevant content found%s.", filter.String()),
		}, nil
	}

	return t.formatResults(ctx, results)
}

// formatResults 將檢索結果排版為模型可讀的區塊，並蒐集來源
func (t *SearchTool) formatResults(ctx context.Context, results []vectorstore.SearchResult) (*ToolResult, error) {
	var blocks []string
	var sources []Source

	for _, r := range results {
		header := r.CourseTitle
		if r.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, *r.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, r.Content))

		src := Source{
			CourseTitle:  r.CourseTitle,
			LessonNumber: r.LessonNumber,
		}
		if r.LessonNumber != nil {
			link, err := t.store.LessonLink(ctx, r.CourseTitle, *r.LessonNumber)
			if err == nil {
				src.Link = link
			}
		}
		sources = append(sources, src)
	}

	return &ToolResult{
		Content: strings.Join(blocks, "\n\n"),
		Sources: sources,
	}, nil
}
