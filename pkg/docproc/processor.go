// Package docproc parses course documents and splits them into
// overlapping chunks ready for vector indexing.
//
// 課程文件為 UTF-8 純文字，開頭三行為課程資訊：
//
//	Course Title: <標題>
//	Course Link: <連結>
//	Course Instructor: <講師>
//
// 其後以 "Lesson N: <單元名>" 分段，單元名下一行可選 "Lesson Link: <連結>"。
package docproc

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"lectern/pkg/vectorstore"
)

const (
	// DefaultChunkSize 單一片段的最大字元數
	DefaultChunkSize = 800
	// DefaultChunkOverlap 相鄰片段間重疊的字元數
	DefaultChunkOverlap = 100
)

var (
	lessonHeaderRegex = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)
	sentenceRegex     = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)
)

// Processor 解析課程文件並切片
type Processor struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewProcessor 以預設切片參數建立 Processor
func NewProcessor() *Processor {
	return &Processor{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
}

// ProcessFile 讀取並解析單一課程文件
func (p *Processor) ProcessFile(path string) (*vectorstore.CourseMeta, []vectorstore.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("docproc: open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("docproc: read %s: %w", path, err)
	}

	return p.process(lines, path)
}

// Process 解析已載入的文件內容
func (p *Processor) Process(content string, name string) (*vectorstore.CourseMeta, []vectorstore.Chunk, error) {
	return p.process(strings.Split(content, "\n"), name)
}

func (p *Processor) process(lines []string, name string) (*vectorstore.CourseMeta, []vectorstore.Chunk, error) {
	meta := &vectorstore.CourseMeta{}

	// 開頭的課程資訊行，順序固定但允許缺漏
	idx := 0
	for idx < len(lines) {
		line := strings.TrimSpace(lines[idx])
		switch {
		case strings.HasPrefix(line, "Course Title:"):
			meta.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			meta.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			meta.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		case line == "":
			// 空行不結束標頭區
		default:
			goto body
		}
		idx++
	}

body:
	if meta.Title == "" {
		return nil, nil, fmt.Errorf("docproc: %s: missing Course Title header", name)
	}

	var chunks []vectorstore.Chunk
	chunkIndex := 0

	appendChunks := func(text string, lessonNumber *int, contextPrefix string) {
		for _, piece := range p.splitText(text) {
			content := piece
			if contextPrefix != "" {
				content = contextPrefix + " " + piece
			}
			chunks = append(chunks, vectorstore.Chunk{
				CourseTitle:  meta.Title,
				LessonNumber: lessonNumber,
				Content:      content,
				ChunkIndex:   chunkIndex,
			})
			chunkIndex++
		}
	}

	var currentLesson *vectorstore.Lesson
	var buf strings.Builder

	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text == "" {
			return
		}
		if currentLesson == nil {
			// 單元區段前的課程層級內容
			appendChunks(text, nil, fmt.Sprintf("Course %s content:", meta.Title))
			return
		}
		n := currentLesson.Number
		appendChunks(text, &n, fmt.Sprintf("Course %s Lesson %d content:", meta.Title, n))
	}

	for ; idx < len(lines); idx++ {
		line := lines[idx]
		trimmed := strings.TrimSpace(line)

		if m := lessonHeaderRegex.FindStringSubmatch(trimmed); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			meta.Lessons = append(meta.Lessons, vectorstore.Lesson{
				Number: number,
				Title:  strings.TrimSpace(m[2]),
			})
			currentLesson = &meta.Lessons[len(meta.Lessons)-1]
			continue
		}

		if currentLesson != nil && currentLesson.Link == "" && buf.Len() == 0 &&
			strings.HasPrefix(trimmed, "Lesson Link:") {
			currentLesson.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	return meta, chunks, nil
}

// splitText 以句子為單位組裝片段，保留設定的字元數重疊
func (p *Processor) splitText(text string) []string {
	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	overlap := p.ChunkOverlap
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	if len(normalized) <= chunkSize {
		return []string{normalized}
	}

	sentences := splitSentences(normalized)

	var out []string
	var current strings.Builder
	for i := 0; i < len(sentences); i++ {
		sentence := sentences[i]

		// 單一句子就超長時獨立成段
		if current.Len() == 0 && len(sentence) >= chunkSize {
			out = append(out, sentence)
			continue
		}

		if current.Len() > 0 && current.Len()+1+len(sentence) > chunkSize {
			chunk := current.String()
			out = append(out, chunk)
			current.Reset()

			// 從上一段尾端取 overlap 字元起頭，維持語境連貫
			if overlap > 0 && len(chunk) > overlap {
				tail := chunk[len(chunk)-overlap:]
				if sp := strings.IndexByte(tail, ' '); sp >= 0 {
					tail = tail[sp+1:]
				}
				current.WriteString(tail)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	if strings.TrimSpace(current.String()) != "" {
		out = append(out, current.String())
	}
	return out
}

// splitSentences 簡易斷句，以 .!? 加空白為界
func splitSentences(text string) []string {
	matches := sentenceRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	var sentences []string
	consumed := 0
	for _, m := range matches {
		s := strings.TrimSpace(m[1])
		if s != "" {
			sentences = append(sentences, s)
		}
		consumed += len(m[0])
	}
	// 沒有終止符號的殘段
	if rest := strings.TrimSpace(text[consumed:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
