package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// json 用於 package llm 內部的 JSON 處理，統一使用 json-iterator
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LLMClient 通用 LLM 客戶端介面
//
// Chat 是單次阻塞式請求：送出完整對話與可用工具，取回一個完整回應。
// 回應要嘛是最終文字，要嘛帶有工具調用請求，由上層 reasoning engine 處理。
type LLMClient interface {
	// Chat 送出對話歷史與工具清單，等待完整回應。
	// tools 為 nil 或空時，模型不得要求工具調用。
	Chat(ctx context.Context, messages []Message, tools []ToolSchema) (*ChatResponse, error)

	// IsTransientError 判斷是否為暫時性錯誤 (如 503, Rate Limit)
	IsTransientError(err error) bool
}

// FallbackClient 支援多個 Client 分級嘗試
type FallbackClient struct {
	Clients    []LLMClient
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) Chat(ctx context.Context, messages []Message, tools []ToolSchema) (*ChatResponse, error) {
	var lastErr error
	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Previous provider failed, trying fallback", "provider_index", i+1)
		}

		// 使用配置的重試次數，若為 0 則至少執行 1 次
		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				slog.Info("Retrying provider", "provider_index", i+1, "attempt", fmt.Sprintf("%d/%d", retry, maxRetries))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			resp, err := client.Chat(ctx, messages, tools)
			if err == nil {
				return resp, nil
			}

			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Provider failed with transient error, retrying", "provider_index", i+1, "error", err)
				continue
			}

			// 非暫時性錯誤，或者已達最大重試次數
			slog.Error("Provider failed", "provider_index", i+1, "error", err)
			break
		}
	}
	return nil, fmt.Errorf("all fallback providers failed. Last error: %v", lastErr)
}

// IsTransientError 實作 LLMClient 介面
// FallbackClient 的錯誤意味著所有 Child 都失敗了，視為非暫時性。
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}
