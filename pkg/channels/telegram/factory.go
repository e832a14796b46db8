package telegram

import (
	"fmt"

	"lectern/pkg/api"
	"lectern/pkg/channels"
	"lectern/pkg/config"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TelegramFactory 負責建立 Telegram Channels
type TelegramFactory struct{}

// Create 實作 ChannelFactory
func (f *TelegramFactory) Create(rawConfig jsoniter.RawMessage, system *config.SystemConfig) (api.Channel, error) {
	var pCfg TelegramConfig
	if err := json.Unmarshal(rawConfig, &pCfg); err != nil {
		return nil, fmt.Errorf("failed to parse telegram config: %w", err)
	}

	if pCfg.Token == "" {
		// Token 未設定視為停用，不算錯誤
		return nil, nil
	}

	return NewTelegramChannel(pCfg, system.TelegramMessageLimit, system.LLMTimeoutMs)
}

func init() {
	channels.RegisterChannel("telegram", &TelegramFactory{})
}
