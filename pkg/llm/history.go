package llm

import (
	"sync"
	"time"
)

// ChatHistory 管理單一 Session 的對話歷史
//
// 歷史以「回合」為單位累積 (一則 user 加一則 assistant)，
// 讀取時再套用滑動窗口 (Sliding Window) 限制長度，儲存本身不截斷。
type ChatHistory struct {
	messages []Message
	mu       sync.RWMutex
}

// NewChatHistory 建立一個新的歷史管理員
func NewChatHistory() *ChatHistory {
	return &ChatHistory{
		messages: make([]Message, 0),
	}
}

// Add 加入一則新訊息
func (h *ChatHistory) Add(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
}

// AddExchange 以原子操作加入一組完整問答
// 併發的 AddExchange 之間不會交錯，歷史中 user/assistant 永遠成對相鄰。
func (h *ChatHistory) AddExchange(userText, assistantText string) {
	now := time.Now().Unix()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages,
		Message{Role: RoleUser, Content: userText, Timestamp: now},
		Message{Role: RoleAssistant, Content: assistantText, Timestamp: now},
	)
}

// Recent 取得最近 limit 則訊息的副本，依時間先後排序 (最舊在前)
// limit <= 0 時回傳完整歷史。
func (h *ChatHistory) Recent(limit int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if limit > 0 && len(h.messages) > limit {
		start = len(h.messages) - limit
	}

	// 返回副本
	cp := make([]Message, len(h.messages)-start)
	copy(cp, h.messages[start:])
	return cp
}

// Len 回傳目前儲存的訊息數量
func (h *ChatHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
