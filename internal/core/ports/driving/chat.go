package driving

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// ChatService handles text messages sent to the bot.
type ChatService interface {
	// HandleText routes a message to a command or answers it as a question.
	HandleText(ctx context.Context, event MessageEvent) error
}

// MessageEvent is a text message received from the chat platform.
type MessageEvent struct {
	ReplyToken string
	Source     domain.EventSource
	Text       string
}
