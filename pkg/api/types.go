package api

// QueryRequest 通道層送進來的標準化查詢
// ChannelID 由通道自己填入，不由使用者端提供。
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	ChannelID string `json:"-"`
}

// SourceRef 回答引用的一筆來源，供前端顯示
type SourceRef struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// QueryResponse 標準化的查詢回應
// SessionID 為本次實際使用的 Session，通道層應回傳給使用者端保存。
type QueryResponse struct {
	Answer    string      `json:"answer"`
	Sources   []SourceRef `json:"sources"`
	SessionID string      `json:"session_id"`
}

// CourseStats 課程目錄統計
type CourseStats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}
