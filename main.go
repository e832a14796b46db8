package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lectern/pkg/channels"
	_ "lectern/pkg/channels/autoload" // 自動註冊 Channels
	"lectern/pkg/config"
	"lectern/pkg/embedding"
	"lectern/pkg/gateway"
	"lectern/pkg/llm"
	_ "lectern/pkg/llm/autoload" // 自動註冊 LLM Providers
	"lectern/pkg/monitor"
	"lectern/pkg/rag"
	"lectern/pkg/vectorstore"
	"lectern/pkg/vectorstore/memory"
	"lectern/pkg/vectorstore/qdrant"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	monitor.PrintBanner()

	// .env 僅供本機開發，不存在不算錯誤
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	// --- 0. 讀取設定檔 ---
	cfg, sysCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	monitor.SetupSlog(sysCfg.LogLevel)

	// --- 1. LLM 設定 ---
	var providerGroups []llm.ProviderGroupConfig
	if err := json.Unmarshal(cfg.LLM, &providerGroups); err != nil {
		slog.Error("Failed to parse llm provider config", "error", err)
		os.Exit(1)
	}

	client, err := llm.NewFromConfig(providerGroups, llm.Settings{
		MaxRetries: sysCfg.MaxRetries,
		RetryDelay: time.Duration(sysCfg.RetryDelayMs) * time.Millisecond,
	})
	if err != nil {
		slog.Error("Failed to init LLM client", "error", err)
		os.Exit(1)
	}

	// --- 2. 向量化與向量庫 ---
	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		slog.Error("Failed to init embedder", "error", err)
		os.Exit(1)
	}

	store, err := buildStore(cfg.VectorStore, embedder)
	if err != nil {
		slog.Error("Failed to init vector store", "error", err)
		os.Exit(1)
	}

	// --- 3. RAG 系統 ---
	system, err := rag.NewSystem(store, client, rag.Options{
		MaxHistory:   cfg.RAG.MaxHistory,
		SearchLimit:  cfg.RAG.MaxResults,
		SystemPrompt: cfg.SystemPrompt,
	})
	if err != nil {
		slog.Error("Failed to init RAG system", "error", err)
		os.Exit(1)
	}

	// --- 3a. 啟動時載入課程文件 ---
	if cfg.RAG.DocsFolder != "" {
		courses, chunks, err := system.AddCourseFolder(context.Background(), cfg.RAG.DocsFolder, cfg.RAG.ClearOnStartup)
		if err != nil {
			slog.Error("Failed to load course folder", "folder", cfg.RAG.DocsFolder, "error", err)
		} else {
			slog.Info("Course folder loaded", "courses", courses, "chunks", chunks)
		}
	}

	// --- 4. Gateway 初始化（使用 Builder 模式）---
	gw, err := gateway.NewGatewayBuilder().
		WithMonitor(monitor.NewCLIMonitor()).
		WithService(rag.NewService(system)).
		WithChannel(channels.LoadFromConfig(cfg.Channels, sysCfg)...).
		Build()
	if err != nil {
		slog.Error("Failed to build gateway", "error", err)
		os.Exit(1)
	}

	// --- 5. 設定檔熱重載監看 ---
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	watchPaths := []string{"config.json", "system.json"}
	if cfg.RAG.DocsFolder != "" {
		// 監看課程資料夾，新文件落地即補進索引
		watchPaths = append(watchPaths, cfg.RAG.DocsFolder)
	}

	reloadCh := config.WatchConfig(watchCtx, watchPaths...)
	go func() {
		for range reloadCh {
			// 動態套用日誌等級，其餘設定變更需重啟
			newSys := config.LoadSystemConfig("system.json")
			monitor.SetupSlog(newSys.LogLevel)

			if cfg.RAG.DocsFolder != "" {
				// AddCourseFolder 會跳過已索引的課程，重複觸發無害
				courses, chunks, err := system.AddCourseFolder(watchCtx, cfg.RAG.DocsFolder, false)
				if err != nil {
					slog.Error("Re-ingest after change failed", "error", err)
				} else if courses > 0 {
					slog.Info("New course documents ingested", "courses", courses, "chunks", chunks)
				}
			}

			slog.Warn("Change detected on disk. Log level and new documents applied; restart for other changes.")
		}
	}()

	// 監聽系統信號
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 等待信號
	<-sigChan
	slog.Info("Received shutdown signal. Stopping services...")

	// 執行清理
	gw.StopAll()
	slog.Info("Bye!")
}

func buildEmbedder(cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func buildStore(cfg config.VectorStoreConfig, embedder embedding.Embedder) (vectorstore.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.NewStore(embedder), nil
	case "qdrant":
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.URL,
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Dimension:  cfg.Dimension,
		}, embedder)
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
}
