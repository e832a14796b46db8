package llm

import (
	"fmt"
	"sync"
)

// ProviderGroupConfig 定義一組 Provider 的原始設定
// 從 config.json 的 llm.providers 區塊解析而來
type ProviderGroupConfig struct {
	Type    string         `json:"type"`
	APIKeys []string       `json:"api_keys,omitempty"`
	Models  []string       `json:"models"`
	BaseURL string         `json:"base_url,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// ProviderFactory 建立某一類型 Provider 的所有 Client
// 一組設定可展開為多個 Client (多 Key x 多 Model)，供 FallbackClient 逐一嘗試
type ProviderFactory func(cfg ProviderGroupConfig) ([]LLMClient, error)

var (
	providerMu        sync.RWMutex
	providerFactories = make(map[string]ProviderFactory)
)

// RegisterProvider 註冊 Provider 工廠，通常於各 provider package 的 init() 呼叫
func RegisterProvider(typeName string, factory ProviderFactory) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if _, dup := providerFactories[typeName]; dup {
		panic(fmt.Sprintf("llm: RegisterProvider called twice for provider %q", typeName))
	}
	providerFactories[typeName] = factory
}

// GetProviderFactory 取得已註冊的工廠
func GetProviderFactory(typeName string) (ProviderFactory, bool) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	f, ok := providerFactories[typeName]
	return f, ok
}

// RegisteredProviders 回傳所有已註冊的 Provider 類型名稱
func RegisteredProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	return names
}
