package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"lectern/pkg/api"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for decoupled UI
	},
}

// WebConfig Web 通道設定
type WebConfig struct {
	Port      int    `json:"port"`       // Default: 9453
	StaticDir string `json:"static_dir"` // 前端靜態檔案目錄，空字串表示不提供
	// RequestTimeoutMs 單一查詢的逾時 (毫秒)，<= 0 表示不限制
	RequestTimeoutMs int `json:"request_timeout_ms"`
}

// SafeConn 包裝 websocket 連線，序列化寫入
type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteMessage(messageType int, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteMessage(messageType, data)
}

// WebChannel 提供 HTTP API 與 WebSocket 介面
type WebChannel struct {
	config WebConfig
	server *http.Server
}

func NewWebChannel(cfg WebConfig) *WebChannel {
	if cfg.Port == 0 {
		cfg.Port = 9453
	}
	return &WebChannel{config: cfg}
}

func (c *WebChannel) ID() string {
	return "web"
}

func (c *WebChannel) Start(service api.QueryService) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", func(w http.ResponseWriter, r *http.Request) {
		c.handleQuery(w, r, service)
	})
	mux.HandleFunc("GET /api/courses", func(w http.ResponseWriter, r *http.Request) {
		c.handleCourses(w, r, service)
	})
	mux.HandleFunc("POST /api/session", func(w http.ResponseWriter, r *http.Request) {
		c.handleNewSession(w, r, service)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c.handleWebSocket(w, r, service)
	})

	if c.config.StaticDir != "" {
		if _, err := os.Stat(c.config.StaticDir); err == nil {
			mux.Handle("/", noCache(http.FileServer(http.Dir(c.config.StaticDir))))
		} else {
			slog.Warn("Static dir not found, skipping", "dir", c.config.StaticDir)
		}
	}

	addr := fmt.Sprintf(":%d", c.config.Port)
	c.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("Web API listening", "port", c.config.Port)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web API server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

func (c *WebChannel) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if c.config.RequestTimeoutMs > 0 {
		return context.WithTimeout(r.Context(), time.Duration(c.config.RequestTimeoutMs)*time.Millisecond)
	}
	return r.Context(), func() {}
}

func (c *WebChannel) handleQuery(w http.ResponseWriter, r *http.Request, service api.QueryService) {
	var req api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	req.ChannelID = c.ID()

	ctx, cancel := c.requestContext(r)
	defer cancel()

	resp, err := service.Query(ctx, req)
	if err != nil {
		slog.Error("Query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (c *WebChannel) handleCourses(w http.ResponseWriter, r *http.Request, service api.QueryService) {
	stats, err := service.CourseStats(r.Context())
	if err != nil {
		slog.Error("Course stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (c *WebChannel) handleNewSession(w http.ResponseWriter, r *http.Request, service api.QueryService) {
	id, err := service.NewSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id})
}

// handleWebSocket 以 request-response 模式服務 WS 客戶端
// 每則訊息是一個 QueryRequest JSON，回覆對應的 QueryResponse。
func (c *WebChannel) handleWebSocket(w http.ResponseWriter, r *http.Request, service api.QueryService) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS Upgrade failed", "error", err)
		return
	}

	conn := &SafeConn{Conn: rawConn}
	defer conn.Close()

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var req api.QueryRequest
		if err := json.Unmarshal(msgBytes, &req); err != nil {
			// Fallback: treat as plain text query (backward compatibility)
			req = api.QueryRequest{Query: string(msgBytes)}
		}
		if req.Query == "" {
			continue
		}
		req.ChannelID = c.ID()

		ctx := r.Context()
		var cancel context.CancelFunc = func() {}
		if c.config.RequestTimeoutMs > 0 {
			ctx, cancel = context.WithTimeout(ctx, time.Duration(c.config.RequestTimeoutMs)*time.Millisecond)
		}

		resp, err := service.Query(ctx, req)
		cancel()

		var payload []byte
		if err != nil {
			slog.Error("WS query failed", "error", err)
			payload, _ = json.Marshal(map[string]string{"type": "error", "error": err.Error()})
		} else {
			payload, _ = json.Marshal(resp)
		}

		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
}

// noCache 包裝靜態檔案服務，停用瀏覽器快取方便前端開發
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
