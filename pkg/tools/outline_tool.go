package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lectern/pkg/llm"
	"lectern/pkg/vectorstore"
)

// OutlineToolName 課程目錄工具的名稱
const OutlineToolName = "get_course_outline"

// OutlineTool 回傳一門課程的完整目錄 (標題、連結、講師、單元清單)
type OutlineTool struct {
	store vectorstore.Store
}

// NewOutlineTool 建立課程目錄工具
func NewOutlineTool(store vectorstore.Store) *OutlineTool {
	return &OutlineTool{store: store}
}

func (t *OutlineTool) Name() string {
	return OutlineToolName
}

func (t *OutlineTool) Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        OutlineToolName,
		Description: "Get the full outline of a course: title, link, instructor and lesson list",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work)",
				},
			},
			"required": []string{"course_name"},
		},
	}
}

func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	courseName, _ := args["course_name"].(string)
	if strings.TrimSpace(courseName) == "" {
		return &ToolResult{Content: "Outline error: 'course_name' parameter is required."}, nil
	}

	resolved, err := t.store.ResolveCourseName(ctx, courseName)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCourseNotFound) {
			return &ToolResult{
				Content: fmt.Sprintf("No course found matching '%s'", courseName),
			}, nil
		}
		return nil, err
	}

	meta, err := t.store.Outline(ctx, resolved)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCourseNotFound) {
			return &ToolResult{
				Content: fmt.Sprintf("No course found matching '%s'", courseName),
			}, nil
		}
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", meta.Title)
	if meta.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", meta.Link)
	}
	if meta.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", meta.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(meta.Lessons))
	for _, lesson := range meta.Lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s\n", lesson.Number, lesson.Title)
	}

	return &ToolResult{
		Content: b.String(),
		Sources: []Source{{CourseTitle: meta.Title, Link: meta.Link}},
	}, nil
}
