package web

import (
	"fmt"

	"lectern/pkg/api"
	"lectern/pkg/channels"
	"lectern/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

// WebFactory 負責建立 Web Channels
type WebFactory struct{}

// Create 實作 ChannelFactory
func (f *WebFactory) Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (api.Channel, error) {
	var pCfg WebConfig
	// Port 留 0 讓 NewWebChannel 套用預設值
	pCfg.RequestTimeoutMs = system.LLMTimeoutMs

	if err := json.Unmarshal(rawConfig, &pCfg); err != nil {
		return nil, fmt.Errorf("failed to parse web config: %w", err)
	}

	return NewWebChannel(pCfg), nil
}

func init() {
	channels.RegisterChannel("web", &WebFactory{})
}
