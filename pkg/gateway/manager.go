package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lectern/pkg/api"
	"lectern/pkg/monitor"
)

// GatewayManager 負責管理所有的 Channels 並統一路由查詢
//
// 它同時實作 api.QueryService：通道層的查詢會經過這裡轉發給核心，
// 順便廣播到監控器。
type GatewayManager struct {
	channels map[string]api.Channel
	service  api.QueryService
	monitor  monitor.Monitor // 監控器
	mu       sync.RWMutex
}

// NewGatewayManager 建立一個新的 GatewayManager
func NewGatewayManager() *GatewayManager {
	return &GatewayManager{
		channels: make(map[string]api.Channel),
	}
}

// SetService 設定處理查詢的核心邏輯
func (g *GatewayManager) SetService(service api.QueryService) {
	g.service = service
}

// SetMonitor 設定監控器
func (g *GatewayManager) SetMonitor(m monitor.Monitor) {
	g.monitor = m
}

// Register 註冊一個 Channel
func (g *GatewayManager) Register(c api.Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
}

// GetChannel 取得特定的 Channel
func (g *GatewayManager) GetChannel(id string) (api.Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// StartAll 啟動所有已註冊的 Channels
func (g *GatewayManager) StartAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Starting channel", "channel", id)
		// 啟動 Channel，並傳入 self 作為查詢入口
		if err := c.Start(g); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll 停止所有 Channels
func (g *GatewayManager) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Stopping channel", "channel", id)
		if err := c.Stop(); err != nil {
			slog.Error("Error stopping channel", "channel", id, "error", err)
		}
	}
}

// Query 實作 api.QueryService，轉發查詢並廣播到監控器
func (g *GatewayManager) Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error) {
	if g.service == nil {
		return nil, fmt.Errorf("gateway: no query service set")
	}

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "USER",
			ChannelID:   req.ChannelID,
			SessionID:   req.SessionID,
			Content:     req.Query,
		})
	}

	resp, err := g.service.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "ASSISTANT",
			ChannelID:   req.ChannelID,
			SessionID:   resp.SessionID,
			Content:     resp.Answer,
		})
	}
	return resp, nil
}

// CourseStats 實作 api.QueryService
func (g *GatewayManager) CourseStats(ctx context.Context) (*api.CourseStats, error) {
	if g.service == nil {
		return nil, fmt.Errorf("gateway: no query service set")
	}
	return g.service.CourseStats(ctx)
}

// NewSession 實作 api.QueryService
func (g *GatewayManager) NewSession(ctx context.Context) (string, error) {
	if g.service == nil {
		return "", fmt.Errorf("gateway: no query service set")
	}
	return g.service.NewSession(ctx)
}
