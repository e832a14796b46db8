package vectorstore

import "context"

// Store 課程內容的向量索引
//
// 同時保存兩類資料：課程目錄 (標題、講師、單元清單) 與內容片段向量。
// Search 的 courseTitle 需先經 ResolveCourseName 解析為正式標題。
type Store interface {
	// AddCourse 寫入課程目錄。已存在的課程標題視為重複，直接跳過。
	AddCourse(ctx context.Context, meta CourseMeta) error

	// AddChunks 將內容片段向量化後寫入索引
	AddChunks(ctx context.Context, chunks []Chunk) error

	// Search 以語意相似度檢索片段
	// courseTitle 非空時僅搜該課程；lessonNumber 非 nil 時再限定單元。
	// limit <= 0 使用實作的預設上限。
	Search(ctx context.Context, query string, courseTitle string, lessonNumber *int, limit int) ([]SearchResult, error)

	// ResolveCourseName 將使用者輸入的模糊課程名稱解析為正式標題
	// 無法解析時回傳 ErrCourseNotFound。
	ResolveCourseName(ctx context.Context, name string) (string, error)

	// Outline 取得一門課程的完整目錄
	Outline(ctx context.Context, courseTitle string) (*CourseMeta, error)

	// CourseTitles 列出所有已索引課程的正式標題
	CourseTitles(ctx context.Context) ([]string, error)

	// CourseCount 回傳已索引課程數量
	CourseCount(ctx context.Context) (int, error)

	// LessonLink 取得指定課程單元的連結，查無時回傳空字串
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)

	// Clear 清空所有課程與片段
	Clear(ctx context.Context) error
}
