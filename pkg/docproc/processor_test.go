package docproc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `Course Title: Prompt Compression
Course Link: https://example.com/course
Course Instructor: Jay Alammar

Lesson 0: Introduction
Lesson Link: https://example.com/course/0
Welcome to the course. This lesson covers the basics.

Lesson 1: Token Budgets
Counting tokens matters. Budgets keep costs predictable.
`

func TestProcessParsesHeaders(t *testing.T) {
	p := NewProcessor()

	meta, _, err := p.Process(sampleDoc, "sample.txt")
	require.NoError(t, err)

	assert.Equal(t, "Prompt Compression", meta.Title)
	assert.Equal(t, "https://example.com/course", meta.Link)
	assert.Equal(t, "Jay Alammar", meta.Instructor)
}

func TestProcessParsesLessons(t *testing.T) {
	p := NewProcessor()

	meta, _, err := p.Process(sampleDoc, "sample.txt")
	require.NoError(t, err)

	require.Len(t, meta.Lessons, 2)
	assert.Equal(t, 0, meta.Lessons[0].Number)
	assert.Equal(t, "Introduction", meta.Lessons[0].Title)
	assert.Equal(t, "https://example.com/course/0", meta.Lessons[0].Link)
	assert.Equal(t, 1, meta.Lessons[1].Number)
	assert.Equal(t, "Token Budgets", meta.Lessons[1].Title)
	assert.Empty(t, meta.Lessons[1].Link)
}

func TestProcessChunkContextPrefix(t *testing.T) {
	p := NewProcessor()

	_, chunks, err := p.Process(sampleDoc, "sample.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.True(t, strings.HasPrefix(chunks[0].Content, "Course Prompt Compression Lesson 0 content:"))
	require.NotNil(t, chunks[0].LessonNumber)
	assert.Equal(t, 0, *chunks[0].LessonNumber)
	assert.Equal(t, 0, chunks[0].ChunkIndex)

	assert.True(t, strings.HasPrefix(chunks[1].Content, "Course Prompt Compression Lesson 1 content:"))
	require.NotNil(t, chunks[1].LessonNumber)
	assert.Equal(t, 1, *chunks[1].LessonNumber)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestProcessCourseLevelContent(t *testing.T) {
	doc := `Course Title: Intro
Course Link: https://example.com

This overview text appears before any lesson header.
`
	p := NewProcessor()

	meta, chunks, err := p.Process(doc, "intro.txt")
	require.NoError(t, err)

	assert.Empty(t, meta.Lessons)
	require.Len(t, chunks, 1)
	assert.Nil(t, chunks[0].LessonNumber)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Course Intro content:"))
}

func TestProcessMissingTitle(t *testing.T) {
	p := NewProcessor()

	_, _, err := p.Process("Course Link: https://example.com\nSome text.", "broken.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing Course Title")
}

func TestProcessFileReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "course.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	p := NewProcessor()
	meta, chunks, err := p.ProcessFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Prompt Compression", meta.Title)
	assert.Len(t, chunks, 2)
}

func TestSplitTextRespectsChunkSize(t *testing.T) {
	p := &Processor{ChunkSize: 60, ChunkOverlap: 15}

	var sb strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "Sentence number %d says something useful. ", i)
	}

	pieces := p.splitText(sb.String())
	require.Greater(t, len(pieces), 1)
	for _, piece := range pieces {
		// 單句可能超過上限，但組裝出的多句片段不會
		if strings.Count(piece, ".") > 1 {
			assert.LessOrEqual(t, len(piece), 60)
		}
	}
}

func TestSplitTextOverlapCarriesContext(t *testing.T) {
	p := &Processor{ChunkSize: 50, ChunkOverlap: 20}

	text := "First sentence goes here. Second sentence goes here. Third sentence goes here."
	pieces := p.splitText(text)
	require.Greater(t, len(pieces), 1)

	// 後段開頭帶著前段尾端的字詞
	tail := pieces[0][len(pieces[0])-20:]
	if sp := strings.IndexByte(tail, ' '); sp >= 0 {
		tail = tail[sp+1:]
	}
	assert.True(t, strings.HasPrefix(pieces[1], tail))
}

func TestSplitTextNormalizesWhitespace(t *testing.T) {
	p := NewProcessor()

	pieces := p.splitText("short   text\n\twith   gaps.")
	require.Len(t, pieces, 1)
	assert.Equal(t, "short text with gaps.", pieces[0])
}

func TestSplitSentencesHandlesTrailingFragment(t *testing.T) {
	sentences := splitSentences("One complete sentence. A trailing fragment without punctuation")
	require.Len(t, sentences, 2)
	assert.Equal(t, "One complete sentence.", sentences[0])
	assert.Equal(t, "A trailing fragment without punctuation", sentences[1])
}
