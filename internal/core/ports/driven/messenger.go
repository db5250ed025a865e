package driven

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// MessageSender delivers text messages through the chat platform.
// Each text must already fit the platform's per-message limit.
type MessageSender interface {
	// Reply answers an incoming event identified by its reply token.
	Reply(ctx context.Context, replyToken string, texts []string) error

	// Push sends messages to a destination without a triggering event.
	Push(ctx context.Context, dest domain.Destination, texts []string) error
}
