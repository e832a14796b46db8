package llm

import (
	"fmt"
	"log/slog"
	"time"
)

// Settings 控制 FallbackClient 的重試行為
type Settings struct {
	MaxRetries int
	RetryDelay time.Duration
}

// NewFromConfig 依設定展開所有 Provider，組合為一個帶 Fallback 的 LLMClient
//
// groups 的順序即為嘗試順序：前面的 Provider 失敗才會輪到後面。
func NewFromConfig(groups []ProviderGroupConfig, settings Settings) (LLMClient, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("llm: no providers configured")
	}

	var clients []LLMClient
	for _, group := range groups {
		factory, ok := GetProviderFactory(group.Type)
		if !ok {
			return nil, fmt.Errorf("llm: unknown provider type %q (registered: %v)", group.Type, RegisteredProviders())
		}

		built, err := factory(group)
		if err != nil {
			return nil, fmt.Errorf("llm: build provider %q: %w", group.Type, err)
		}
		slog.Info("LLM provider loaded", "type", group.Type, "clients", len(built))
		clients = append(clients, built...)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("llm: provider config produced no clients")
	}

	return &FallbackClient{
		Clients:    clients,
		MaxRetries: settings.MaxRetries,
		RetryDelay: settings.RetryDelay,
	}, nil
}
