// Package rag wires the session store, vector index, tools and the
// reasoning engine into the query orchestrator.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lectern/pkg/agent"
	"lectern/pkg/docproc"
	"lectern/pkg/llm"
	"lectern/pkg/tools"
	"lectern/pkg/vectorstore"
)

// Options 調整 System 行為的參數
type Options struct {
	// MaxHistory 每次問答帶入的歷史訊息數上限 (以單則訊息計)，<= 0 表示不限制
	MaxHistory int
	// SearchLimit 檢索結果上限，<= 0 使用向量庫預設
	SearchLimit int
	// SystemPrompt 覆寫預設系統提示
	SystemPrompt string
}

// Answer 一次查詢的回應
type Answer struct {
	Text      string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

// Analytics 課程目錄統計
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System is the main orchestrator for retrieval-augmented question answering.
type System struct {
	store     vectorstore.Store
	sessions  *llm.SessionManager
	processor *docproc.Processor
	engine    *agent.Engine
	registry  *tools.Registry
	opts      Options
}

// NewSystem 組裝完整的查詢編排系統並註冊內建工具
func NewSystem(store vectorstore.Store, client llm.LLMClient, opts Options) (*System, error) {
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewSearchTool(store, opts.SearchLimit)); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewOutlineTool(store)); err != nil {
		return nil, err
	}

	return &System{
		store:     store,
		sessions:  llm.NewSessionManager(),
		processor: docproc.NewProcessor(),
		engine:    agent.NewEngine(client, registry, opts.SystemPrompt),
		registry:  registry,
		opts:      opts,
	}, nil
}

// Sessions 暴露 Session 管理員，供通道層建立或驗證 Session
func (s *System) Sessions() *llm.SessionManager {
	return s.sessions
}

// Query 回答一個關於課程內容的問題
//
// sessionID 為空時自動建立新 Session；回傳的 Answer.SessionID
// 一定是實際使用的 Session，後續請求帶上它即可延續對話。
func (s *System) Query(ctx context.Context, query string, sessionID string) (*Answer, error) {
	sessionID = s.sessions.Ensure(sessionID)

	history, err := s.sessions.History(sessionID, s.opts.MaxHistory)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)

	slog.Info("Processing query",
		"session_id", sessionID,
		"query_length", len(query),
		"history_messages", len(history))

	result, err := s.engine.Generate(ctx, prompt, history)
	if err != nil {
		return nil, err
	}

	// 歷史記錄存原始問題，不存加工後的 prompt
	if err := s.sessions.AddExchange(sessionID, query, result.Answer); err != nil {
		return nil, err
	}

	slog.Info("Query completed",
		"session_id", sessionID,
		"answer_length", len(result.Answer),
		"sources", len(result.Sources))

	return &Answer{
		Text:      result.Answer,
		Sources:   result.Sources,
		SessionID: sessionID,
	}, nil
}

// AddCourseDocument 將單一課程文件加入知識庫，回傳課程資訊與片段數
func (s *System) AddCourseDocument(ctx context.Context, path string) (*vectorstore.CourseMeta, int, error) {
	meta, chunks, err := s.processor.ProcessFile(path)
	if err != nil {
		return nil, 0, err
	}

	if err := s.store.AddCourse(ctx, *meta); err != nil {
		return nil, 0, err
	}
	if err := s.store.AddChunks(ctx, chunks); err != nil {
		return nil, 0, err
	}

	slog.Info("Course document added", "course", meta.Title, "chunks", len(chunks))
	return meta, len(chunks), nil
}

// AddCourseFolder 將資料夾中所有課程文件加入知識庫
// 已存在的課程標題會跳過；clearExisting 會先清空再全部重建。
func (s *System) AddCourseFolder(ctx context.Context, folder string, clearExisting bool) (int, int, error) {
	if clearExisting {
		slog.Warn("Clearing existing data for fresh rebuild")
		if err := s.store.Clear(ctx); err != nil {
			return 0, 0, err
		}
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, 0, fmt.Errorf("rag: read course folder: %w", err)
	}

	existing, err := s.store.CourseTitles(ctx)
	if err != nil {
		return 0, 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, title := range existing {
		known[title] = true
	}

	totalCourses, totalChunks := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}

		path := filepath.Join(folder, entry.Name())
		meta, chunks, err := s.processor.ProcessFile(path)
		if err != nil {
			slog.Error("Skipping unreadable course document", "file", entry.Name(), "error", err)
			continue
		}

		if known[meta.Title] {
			slog.Info("Course already exists, skipping", "course", meta.Title)
			continue
		}

		if err := s.store.AddCourse(ctx, *meta); err != nil {
			return totalCourses, totalChunks, err
		}
		if err := s.store.AddChunks(ctx, chunks); err != nil {
			return totalCourses, totalChunks, err
		}

		known[meta.Title] = true
		totalCourses++
		totalChunks += len(chunks)
		slog.Info("Added new course", "course", meta.Title, "chunks", len(chunks))
	}

	return totalCourses, totalChunks, nil
}

// CourseAnalytics 回傳課程目錄統計
func (s *System) CourseAnalytics(ctx context.Context) (*Analytics, error) {
	count, err := s.store.CourseCount(ctx)
	if err != nil {
		return nil, err
	}
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{
		TotalCourses: count,
		CourseTitles: titles,
	}, nil
}
