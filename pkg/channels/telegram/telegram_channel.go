// Package telegram implements a long-polling Telegram bot channel.
// Each chat keeps its own conversation session so follow-up questions
// retain context.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lectern/pkg/api"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig encapsulates the credentials required to authenticate with
// the Telegram Bot API.
type TelegramConfig struct {
	Token string `json:"token"` // The secret BOT API string provided by @BotFather
}

// TelegramChannel is the production implementation of api.Channel for
// the Telegram platform.
type TelegramChannel struct {
	config       TelegramConfig
	bot          *tgbotapi.BotAPI
	messageLimit int
	timeoutMs    int

	mu       sync.Mutex
	sessions map[int64]string // ChatID -> session ID

	stopCtx    context.Context
	stopCancel context.CancelFunc
}

func NewTelegramChannel(cfg TelegramConfig, msgLimit int, timeoutMs int) (api.Channel, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	if msgLimit <= 0 {
		msgLimit = 4000
	}

	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		messageLimit: msgLimit,
		timeoutMs:    timeoutMs,
		sessions:     make(map[int64]string),
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start initiates the long-polling update loop in a background goroutine.
func (t *TelegramChannel) Start(service api.QueryService) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-t.stopCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil || update.Message.Text == "" {
					continue
				}
				go t.handleMessage(service, update.Message)
			}
		}
	}()

	return nil
}

// Stop aborts the polling loop.
func (t *TelegramChannel) Stop() error {
	t.stopCancel()
	t.bot.StopReceivingUpdates()
	return nil
}

func (t *TelegramChannel) handleMessage(service api.QueryService, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start":
		t.reply(chatID, "Ask me anything about the indexed course materials. Use /courses to see what's available, /newchat to start over.")
		return

	case text == "/newchat":
		t.mu.Lock()
		delete(t.sessions, chatID)
		t.mu.Unlock()
		t.reply(chatID, "Started a new conversation.")
		return

	case text == "/courses":
		stats, err := service.CourseStats(t.stopCtx)
		if err != nil {
			t.reply(chatID, fmt.Sprintf("Failed to fetch courses: %v", err))
			return
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d courses available:\n", stats.TotalCourses)
		for _, title := range stats.CourseTitles {
			fmt.Fprintf(&b, "• %s\n", title)
		}
		t.reply(chatID, b.String())
		return
	}

	t.mu.Lock()
	sessionID := t.sessions[chatID]
	t.mu.Unlock()

	ctx := t.stopCtx
	var cancel context.CancelFunc = func() {}
	if t.timeoutMs > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t.timeoutMs)*time.Millisecond)
	}
	defer cancel()

	resp, err := service.Query(ctx, api.QueryRequest{
		Query:     text,
		SessionID: sessionID,
		ChannelID: t.ID(),
	})
	if err != nil {
		slog.Error("Telegram query failed", "chat_id", chatID, "error", err)
		t.reply(chatID, "Sorry, something went wrong processing your question.")
		return
	}

	t.mu.Lock()
	t.sessions[chatID] = resp.SessionID
	t.mu.Unlock()

	answer := resp.Answer
	if len(resp.Sources) > 0 {
		var b strings.Builder
		b.WriteString(answer)
		b.WriteString("\n\nSources:")
		seen := make(map[string]bool)
		for _, src := range resp.Sources {
			if seen[src.Text] {
				continue
			}
			seen[src.Text] = true
			if src.Link != "" {
				fmt.Fprintf(&b, "\n• %s (%s)", src.Text, src.Link)
			} else {
				fmt.Fprintf(&b, "\n• %s", src.Text)
			}
		}
		answer = b.String()
	}

	t.reply(chatID, answer)
}

// reply 發送訊息，超過長度限制時切段送出
func (t *TelegramChannel) reply(chatID int64, text string) {
	for _, part := range splitMessage(text, t.messageLimit) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := t.bot.Send(msg); err != nil {
			slog.Error("Failed to send telegram message", "chat_id", chatID, "error", err)
			return
		}
	}
}

// splitMessage 依長度限制切割訊息，儘量在換行處斷開
func splitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
