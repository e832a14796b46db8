package llm

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownSession 表示操作指向一個不存在的 Session ID
var ErrUnknownSession = errors.New("llm: unknown session")

// SessionManager manages multiple conversation histories isolated by session ID.
type SessionManager struct {
	histories map[string]*ChatHistory
	mu        sync.RWMutex
}

// NewSessionManager initializes an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		histories: make(map[string]*ChatHistory),
	}
}

// Create allocates a new session with a unique ID and an empty history.
func (sm *SessionManager) Create() string {
	id := uuid.NewString()

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.histories[id] = NewChatHistory()
	return id
}

// Ensure returns the given session ID if it exists, otherwise creates a
// fresh session and returns its ID. An empty ID always creates a session.
func (sm *SessionManager) Ensure(sessionID string) string {
	if sessionID != "" {
		sm.mu.RLock()
		_, ok := sm.histories[sessionID]
		sm.mu.RUnlock()
		if ok {
			return sessionID
		}
	}
	return sm.Create()
}

// History returns the most recent messages of a session, oldest first.
// limit <= 0 returns the full history.
func (sm *SessionManager) History(sessionID string, limit int) ([]Message, error) {
	sm.mu.RLock()
	h, ok := sm.histories[sessionID]
	sm.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownSession
	}
	return h.Recent(limit), nil
}

// AddExchange appends a complete user/assistant exchange to a session.
func (sm *SessionManager) AddExchange(sessionID, userText, assistantText string) error {
	sm.mu.RLock()
	h, ok := sm.histories[sessionID]
	sm.mu.RUnlock()

	if !ok {
		return ErrUnknownSession
	}
	h.AddExchange(userText, assistantText)
	return nil
}

// Append adds a single message to a session.
func (sm *SessionManager) Append(sessionID string, msg Message) error {
	sm.mu.RLock()
	h, ok := sm.histories[sessionID]
	sm.mu.RUnlock()

	if !ok {
		return ErrUnknownSession
	}
	h.Add(msg)
	return nil
}
