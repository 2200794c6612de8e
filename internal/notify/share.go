package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// ErrShareUnavailable means neither sharing nor the clipboard worked.
var ErrShareUnavailable = errors.New("sharing is not available")

// ShareResult tells the caller which channel carried the text.
type ShareResult string

const (
	ShareSent   ShareResult = "shared"
	ShareCopied ShareResult = "copied"
)

// ShareTarget is one way of handing text to the outside world.
type ShareTarget interface {
	Share(ctx context.Context, text string) error
}

// Sharer tries the platform share first and falls back to copying.
type Sharer struct {
	primary  ShareTarget
	fallback ShareTarget
	log      *zap.Logger
}

// NewSharer builds a Sharer. Either target may be nil.
func NewSharer(primary, fallback ShareTarget, log *zap.Logger) *Sharer {
	return &Sharer{primary: primary, fallback: fallback, log: log}
}

func (s *Sharer) Share(ctx context.Context, text string) (ShareResult, error) {
	if s.primary != nil {
		err := s.primary.Share(ctx, text)
		if err == nil {
			return ShareSent, nil
		}
		s.log.Info("share failed, falling back to clipboard", zap.Error(err))
	}
	if s.fallback != nil {
		err := s.fallback.Share(ctx, text)
		if err == nil {
			return ShareCopied, nil
		}
		s.log.Info("clipboard copy failed", zap.Error(err))
	}
	return "", ErrShareUnavailable
}

// ChatShareTarget posts the text into the notifier's chat.
type ChatShareTarget struct {
	api    ChatAPI
	chatID func() int64
}

func NewChatShareTarget(api ChatAPI, chatID func() int64) *ChatShareTarget {
	return &ChatShareTarget{api: api, chatID: chatID}
}

func (t *ChatShareTarget) Share(ctx context.Context, text string) error {
	id := t.chatID()
	if id == 0 {
		return errors.New("no chat bound")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("send share: %w", err)
	}
	return nil
}

// ClipboardTarget copies the text to the system clipboard.
type ClipboardTarget struct{}

func (ClipboardTarget) Share(_ context.Context, text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard unsupported on this system")
	}
	return clipboard.WriteAll(text)
}
