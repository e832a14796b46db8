package vectorstore

import "errors"

// ErrCourseNotFound 表示課程名稱無法對應到任何已索引的課程
var ErrCourseNotFound = errors.New("vectorstore: course not found")

// Lesson 課程中的一個單元
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// CourseMeta 一門課程的完整目錄資訊
type CourseMeta struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Chunk 課程內容的一個索引片段
// LessonNumber 為 nil 表示片段屬於課程層級 (非任一單元)；單元編號從 0 起算。
type Chunk struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	Content      string `json:"content"`
	ChunkIndex   int    `json:"chunk_index"`
}

// SearchResult 一筆語意檢索結果，依相關性排序
type SearchResult struct {
	Content      string  `json:"content"`
	CourseTitle  string  `json:"course_title"`
	LessonNumber *int    `json:"lesson_number,omitempty"`
	Score        float32 `json:"score"`
}
