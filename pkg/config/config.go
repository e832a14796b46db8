package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure.
// This structure maps directly to the config.json file and holds
// business-level settings like channel credentials, LLM providers and
// knowledge base parameters.
//
// 檔案內容在解析前會先經過 os.ExpandEnv，
// 因此可以寫 "${OPENAI_API_KEY}" 之類的佔位字串引用環境變數。
type Config struct {
	// Channels contains a map of channel identifiers (e.g., "web", "telegram")
	// to their specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the provider list for the reasoning engine in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
	// Embedding configures how course content is turned into vectors.
	Embedding EmbeddingConfig `json:"embedding"`
	// VectorStore selects and configures the vector index backend.
	VectorStore VectorStoreConfig `json:"vector_store"`
	// RAG holds the knowledge base and conversation parameters.
	RAG RAGConfig `json:"rag"`
	// SystemPrompt overrides the built-in system prompt when non-empty.
	SystemPrompt string `json:"system_prompt"`
}

// EmbeddingConfig 向量化設定
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

// VectorStoreConfig 向量庫設定
type VectorStoreConfig struct {
	// Type is "memory" or "qdrant".
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	Collection string `json:"collection,omitempty"`
	Dimension  int    `json:"dimension,omitempty"`
}

// RAGConfig 知識庫與對話參數
type RAGConfig struct {
	// MaxResults 單次檢索回傳的片段上限
	MaxResults int `json:"max_results"`
	// MaxHistory 每次問答帶入的歷史訊息數上限 (以單則訊息計)
	MaxHistory int `json:"max_history"`
	// DocsFolder 啟動時自動載入的課程文件資料夾，空字串表示不載入
	DocsFolder string `json:"docs_folder,omitempty"`
	// ClearOnStartup 啟動載入前先清空既有索引
	ClearOnStartup bool `json:"clear_on_startup,omitempty"`
}

// Validate ensures the configuration structure contains all mandatory fields.
// It acts as a primary guard before the system proceeds to initialization.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	if c.Embedding.Provider == "" {
		return fmt.Errorf("mandatory 'embedding.provider' configuration is missing")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters.
// These settings are usually stored in system.json and control the
// performance, reliability, and technical behavior of the engine.
type SystemConfig struct {
	// MaxRetries is the number of times the system will attempt to
	// recover from a transient LLM or network error before giving up.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the duration to wait (in milliseconds) between
	// consecutive retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff time (in milliseconds) for a
	// query. The context will be cancelled if exceeded.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer responses will be split into multiple chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with hardcoded
// safe default values. This is used as a fallback when the system.json file
// is missing or corrupt, ensuring the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:           3,
		RetryDelayMs:         500,
		LLMTimeoutMs:         600000,
		TelegramMessageLimit: 4000,
		LogLevel:             "info",
	}
}

// Load reads and parses the JSON configuration files from the current working directory.
// It first attempts to load 'config.json' (app config). If this file is missing, it returns an error.
// Then it calls LoadSystemConfig to load 'system.json'.
// Returns pointers to the loaded Config and SystemConfig, or an error if the mandatory app config fails.
func Load() (*Config, *SystemConfig, error) {
	// 1. Load Application Config
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 展開環境變數佔位字串
	expanded := os.ExpandEnv(string(appFile))

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 1a. Validate structure integrity
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// 2. Load System Config independently
	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}
