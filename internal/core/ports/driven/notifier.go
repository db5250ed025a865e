package driven

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// SyncNotifier reports sync progress to the requester.
type SyncNotifier interface {
	// NotifyStarting acknowledges a sync request on the reply channel.
	NotifyStarting(ctx context.Context, replyToken string) error

	// NotifyCompleted pushes the summary of a finished run.
	NotifyCompleted(
		ctx context.Context, dest domain.Destination, result domain.SyncResult, build domain.IndexBuildResult,
	) error

	// NotifyNoDocuments pushes a notice that the source was empty.
	NotifyNoDocuments(ctx context.Context, dest domain.Destination) error

	// NotifyError pushes a failure notice.
	NotifyError(ctx context.Context, dest domain.Destination, failure domain.SyncFailure) error
}
