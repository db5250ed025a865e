package driving

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// SyncService rebuilds the index from the document source.
type SyncService interface {
	// Sync runs one full synchronisation and reports to the requester.
	// A run over an empty source succeeds with a zero summary.
	Sync(ctx context.Context, req SyncRequest) (*domain.SyncSummary, error)

	// Begin validates req and sends the starting acknowledgement. If the
	// acknowledgement fails its error is returned and no run exists.
	// Sync is Begin followed by Run.
	Begin(ctx context.Context, req SyncRequest) (SyncRun, error)

	// Status returns the state of the latest run for a destination.
	Status(ctx context.Context, dest domain.Destination) (*SyncStatus, error)
}

// SyncRun is an acknowledged sync that has not rebuilt the index yet.
type SyncRun interface {
	// Run rebuilds the index and sends the completion or error notice.
	// It must be called at most once.
	Run(ctx context.Context) (*domain.SyncSummary, error)
}

// SyncRequest identifies who asked for a sync.
type SyncRequest struct {
	// ReplyToken acknowledges the request synchronously.
	ReplyToken string

	// Source receives the asynchronous completion or error notice.
	Source domain.EventSource
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// Destination identifies the requester.
	Destination domain.Destination

	// Phase is the current state of the run.
	Phase domain.SyncPhase

	// Running indicates if sync is currently in progress.
	Running bool

	// DocumentsProcessed is the count of documents indexed so far.
	DocumentsProcessed int

	// EntriesProduced is the count of index entries produced so far.
	EntriesProduced int

	// Batches is the number of batches indexed so far.
	Batches int

	// Err is the failure of a failed run.
	Err error

	// NotifyErr records a failure to deliver the error notice.
	NotifyErr error
}

// SyncRunner serialises sync runs started from different entry points.
// Both methods return domain.ErrSyncInProgress while another run is active.
type SyncRunner interface {
	// RunSync runs a sync and waits for it to finish.
	RunSync(ctx context.Context, req SyncRequest) (*domain.SyncSummary, error)

	// StartSync runs a sync in the background.
	StartSync(ctx context.Context, req SyncRequest) error

	// Wait blocks until background syncs have finished.
	Wait()
}
