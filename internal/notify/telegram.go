package notify

import (
	"context"
	"fmt"
	"html"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ChatAPI is the subset of the Telegram bot API used for delivery.
type ChatAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// TelegramNotifier delivers alerts as chat messages to a single chat.
type TelegramNotifier struct {
	api ChatAPI
	log *zap.Logger

	mu     sync.Mutex
	chatID int64
	perm   Permission
}

func NewTelegramNotifier(api ChatAPI, chatID int64, log *zap.Logger) *TelegramNotifier {
	n := &TelegramNotifier{api: api, log: log}
	n.SetChatID(chatID)
	return n
}

// SetChatID binds the notifier to a chat. Permission must be requested again.
func (n *TelegramNotifier) SetChatID(chatID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if chatID == n.chatID && n.perm != "" {
		return
	}
	n.chatID = chatID
	if chatID == 0 {
		n.perm = PermissionDenied
	} else {
		n.perm = PermissionUndetermined
	}
}

// ChatID returns the bound chat, or 0.
func (n *TelegramNotifier) ChatID() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chatID
}

func (n *TelegramNotifier) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.perm
}

// RequestPermission checks that the bot can reach the bound chat.
func (n *TelegramNotifier) RequestPermission(ctx context.Context) (bool, error) {
	chatID := n.ChatID()
	if chatID == 0 {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := n.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})

	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		n.perm = PermissionDenied
		n.log.Warn("notification permission denied", zap.Int64("chat_id", chatID), zap.Error(err))
		return false, nil
	}
	n.perm = PermissionGranted
	n.log.Info("notification permission granted", zap.Int64("chat_id", chatID))
	return true, nil
}

func (n *TelegramNotifier) Fire(ctx context.Context, title, body string) error {
	n.mu.Lock()
	chatID, perm := n.chatID, n.perm
	n.mu.Unlock()

	if perm != PermissionGranted {
		logFallback(n.log, title, body)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := fmt.Sprintf("🔔 <b>%s</b>\n%s", html.EscapeString(TitlePrefix+title), html.EscapeString(body))
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	n.log.Info("alert delivered", zap.Int64("chat_id", chatID), zap.String("title", title))
	return nil
}
