// Package notify reports sync progress as chat messages.
package notify

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-chat/internal/chattext"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// Ensure Notifier implements the interface.
var _ driven.SyncNotifier = (*Notifier)(nil)

// Notifier renders sync events and delivers them through a MessageSender.
// The starting acknowledgement is a reply; every later notice is a push.
type Notifier struct {
	sender   driven.MessageSender
	fallback domain.Destination
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithFallbackDestination pushes the starting acknowledgement to dest when
// a request carries no reply token, as syncs started outside a chat do.
func WithFallbackDestination(dest domain.Destination) Option {
	return func(n *Notifier) {
		n.fallback = dest
	}
}

// NewNotifier creates a new notifier.
func NewNotifier(sender driven.MessageSender, opts ...Option) *Notifier {
	n := &Notifier{sender: sender}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyStarting replies to the sync request.
func (n *Notifier) NotifyStarting(ctx context.Context, replyToken string) error {
	if replyToken == "" && n.fallback != "" {
		return n.push(ctx, n.fallback, "sync starting", chattext.RenderStarting())
	}
	if err := n.sender.Reply(ctx, replyToken, chattext.SplitLongMessage(chattext.RenderStarting())); err != nil {
		return fmt.Errorf("reply sync starting: %w", err)
	}
	return nil
}

// NotifyCompleted pushes the run summary.
func (n *Notifier) NotifyCompleted(
	ctx context.Context, dest domain.Destination, result domain.SyncResult, build domain.IndexBuildResult,
) error {
	return n.push(ctx, dest, "sync completed", chattext.RenderCompleted(result, build))
}

// NotifyNoDocuments pushes the empty-source notice.
func (n *Notifier) NotifyNoDocuments(ctx context.Context, dest domain.Destination) error {
	return n.push(ctx, dest, "sync no documents", chattext.RenderNoDocuments())
}

// NotifyError pushes a failure notice.
func (n *Notifier) NotifyError(ctx context.Context, dest domain.Destination, failure domain.SyncFailure) error {
	return n.push(ctx, dest, "sync error", chattext.RenderError(failure))
}

func (n *Notifier) push(ctx context.Context, dest domain.Destination, what, text string) error {
	if err := n.sender.Push(ctx, dest, chattext.SplitLongMessage(text)); err != nil {
		return fmt.Errorf("push %s: %w", what, err)
	}
	return nil
}
