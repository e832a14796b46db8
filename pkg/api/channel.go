package api

import "context"

// QueryService defines the capabilities a channel can invoke on the core.
type QueryService interface {
	// Query 回答一個問題，sessionID 為空時建立新 Session
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)

	// CourseStats 取得課程目錄統計
	CourseStats(ctx context.Context) (*CourseStats, error)

	// NewSession 明確建立一個新 Session 並回傳其 ID
	NewSession(ctx context.Context) (string, error)
}

// Channel defines the standardized lifecycle interface for communication platforms.
type Channel interface {
	ID() string
	Start(service QueryService) error
	Stop() error
}
