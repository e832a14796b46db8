package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectern/pkg/vectorstore"
)

func TestOutlineToolFormatsOutline(t *testing.T) {
	store := &fakeStore{
		titles: []string{"Introduction to MCP"},
		outline: &vectorstore.CourseMeta{
			Title:      "Introduction to MCP",
			Link:       "https://example.com/mcp",
			Instructor: "Elie Schoppik",
			Lessons: []vectorstore.Lesson{
				{Number: 0, Title: "Overview"},
				{Number: 1, Title: "Servers"},
			},
		},
	}
	tool := NewOutlineTool(store)

	result, err := tool.Execute(context.Background(), map[string]any{"course_name": "mcp"})
	require.NoError(t, err)

	expected := "Course: Introduction to MCP\n" +
		"Course Link: https://example.com/mcp\n" +
		"Instructor: Elie Schoppik\n" +
		"Lessons (2):\n" +
		"  Lesson 0: Overview\n" +
		"  Lesson 1: Servers\n"
	assert.Equal(t, expected, result.Content)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Introduction to MCP", result.Sources[0].CourseTitle)
	assert.Equal(t, "https://example.com/mcp", result.Sources[0].Link)
}

func TestOutlineToolOmitsEmptyFields(t *testing.T) {
	store := &fakeStore{
		titles:  []string{"Bare Course"},
		outline: &vectorstore.CourseMeta{Title: "Bare Course"},
	}
	tool := NewOutlineTool(store)

	result, err := tool.Execute(context.Background(), map[string]any{"course_name": "Bare Course"})
	require.NoError(t, err)
	assert.Equal(t, "Course: Bare Course\nLessons (0):\n", result.Content)
}

func TestOutlineToolCourseNotFound(t *testing.T) {
	tool := NewOutlineTool(&fakeStore{titles: []string{"Other"}})

	result, err := tool.Execute(context.Background(), map[string]any{"course_name": "missing"})
	require.NoError(t, err)
	assert.Equal(t, "No course found matching 'missing'", result.Content)
}

func TestOutlineToolMissingCourseName(t *testing.T) {
	tool := NewOutlineTool(&fakeStore{})

	result, err := tool.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Outline error: 'course_name' parameter is required.", result.Content)
}
