package embedding

import "context"

// Embedder 將文字轉換為向量，供向量庫索引與查詢使用
type Embedder interface {
	// Embed 將單一文字轉換為向量
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 批次轉換多段文字，回傳順序與輸入一致
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
