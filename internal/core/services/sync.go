package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/batch"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// DefaultBatchSize is the number of documents sent to the index at once.
const DefaultBatchSize = 100

// MaxTrackedStatuses bounds how many destinations keep a last-run status.
// The oldest finished runs are forgotten first; running ones are kept.
const MaxTrackedStatuses = 128

// Ensure SyncOrchestrator implements the interfaces.
var (
	_ driving.SyncService = (*SyncOrchestrator)(nil)
	_ driving.SyncRun     = (*syncRun)(nil)
)

// SyncOrchestrator rebuilds the index from the document source and reports
// progress to the requester.
//
// A run moves through NotStarted, Notified, IndexCleared and Batching, and
// ends in Completed, NoDocuments or Failed. Every run clears the index and
// re-adds all documents; a failed batch fails the whole run. Runs for
// different requesters share no state, but nothing here stops two runs
// from rebuilding the index at the same time.
type SyncOrchestrator struct {
	source    driven.DocumentSource
	index     driven.IndexBackend
	notifier  driven.SyncNotifier
	batchSize int
	now       func() time.Time

	// Status tracking
	mu       sync.RWMutex
	statuses map[domain.Destination]*driving.SyncStatus
	order    []domain.Destination // oldest first
}

// SyncOption configures a SyncOrchestrator.
type SyncOption func(*SyncOrchestrator)

// WithBatchSize sets the number of documents per index batch.
func WithBatchSize(size int) SyncOption {
	return func(o *SyncOrchestrator) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) SyncOption {
	return func(o *SyncOrchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	source driven.DocumentSource,
	index driven.IndexBackend,
	notifier driven.SyncNotifier,
	opts ...SyncOption,
) *SyncOrchestrator {
	o := &SyncOrchestrator{
		source:    source,
		index:     index,
		notifier:  notifier,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		statuses:  make(map[domain.Destination]*driving.SyncStatus),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sync runs one full synchronisation.
//
// The starting acknowledgement is sent first; if it fails the error is
// returned as-is and nothing else happens. Any later failure produces
// exactly one error notification and is returned as a *domain.SyncError.
func (o *SyncOrchestrator) Sync(ctx context.Context, req driving.SyncRequest) (*domain.SyncSummary, error) {
	run, err := o.Begin(ctx, req)
	if err != nil {
		return nil, err
	}
	return run.Run(ctx)
}

// Begin validates req and sends the starting acknowledgement.
// The returned run is in the Notified phase.
func (o *SyncOrchestrator) Begin(ctx context.Context, req driving.SyncRequest) (driving.SyncRun, error) {
	if err := req.Source.Validate(); err != nil {
		return nil, err
	}
	dest := req.Source.Destination()

	status := &driving.SyncStatus{
		Destination: dest,
		Phase:       domain.PhaseNotStarted,
		Running:     true,
	}
	o.setStatus(dest, status)

	logger.Section("Sync")
	logger.Info("Starting sync from %s for %s", o.source.Name(), dest)

	// 1. Acknowledge the request
	if err := o.notifier.NotifyStarting(ctx, req.ReplyToken); err != nil {
		o.update(status, func(s *driving.SyncStatus) {
			s.Phase = domain.PhaseFailed
			s.Running = false
			s.Err = err
		})
		return nil, fmt.Errorf("notify starting: %w", err)
	}
	o.setPhase(status, domain.PhaseNotified)

	return &syncRun{o: o, dest: dest, status: status}, nil
}

// syncRun is an acknowledged run of a SyncOrchestrator.
type syncRun struct {
	o      *SyncOrchestrator
	dest   domain.Destination
	status *driving.SyncStatus
	done   atomic.Bool
}

// Run rebuilds the index. A second call fails without touching the index.
func (r *syncRun) Run(ctx context.Context) (*domain.SyncSummary, error) {
	if !r.done.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: sync run already used", domain.ErrInvalidInput)
	}
	summary, err := r.o.run(ctx, r.dest, r.status)
	if err != nil {
		r.o.fail(ctx, r.dest, r.status, err)
		return nil, err
	}
	return summary, nil
}

// run performs the clear, batch and completion steps.
func (o *SyncOrchestrator) run(
	ctx context.Context, dest domain.Destination, status *driving.SyncStatus,
) (*domain.SyncSummary, error) {
	started := o.now()

	// 2. Full rebuild: discard the current index
	if err := o.index.Clear(ctx); err != nil {
		return nil, &domain.SyncError{Kind: domain.KindSystem, Stage: "clear index", Err: err}
	}
	o.setPhase(status, domain.PhaseIndexCleared)

	// 3. Stream documents through the index in batches
	o.setPhase(status, domain.PhaseBatching)
	var (
		total     domain.IndexBuildResult
		documents int
		batches   int
	)
	for docs, err := range batch.Batches(o.source.Documents(ctx), o.batchSize) {
		if err != nil {
			return nil, &domain.SyncError{Kind: domain.ClassifyError(err), Stage: "read documents", Err: err}
		}

		res, err := o.index.AddDocuments(ctx, docs)
		if err != nil {
			return nil, &domain.SyncError{
				Kind:  domain.ClassifyError(err),
				Stage: fmt.Sprintf("index batch %d", batches+1),
				Err:   err,
			}
		}

		batches++
		total = total.Add(domain.IndexBuildResult{
			DocumentsProcessed: res.DocumentsProcessed,
			EntriesProduced:    res.EntriesProduced,
		})
		documents += len(docs)
		o.update(status, func(s *driving.SyncStatus) {
			s.Batches = batches
			s.DocumentsProcessed = documents
			s.EntriesProduced = total.EntriesProduced
		})
		logger.Debug("Indexed batch %d: %d documents, %d entries", batches, len(docs), res.EntriesProduced)
	}

	// 4a. Nothing to index is a successful outcome
	if documents == 0 {
		logger.Info("Sync found no documents")
		if err := o.notifier.NotifyNoDocuments(ctx, dest); err != nil {
			return nil, &domain.SyncError{Kind: domain.ClassifyError(err), Stage: "notify no documents", Err: err}
		}
		o.finish(status, domain.PhaseNoDocuments)
		return &domain.SyncSummary{Result: domain.NewSyncResult(nil)}, nil
	}

	// 4b. Every observed document was indexed; per-document failures are
	// not tracked at this layer.
	result := domain.SucceededResult(documents)
	build := domain.IndexBuildResult{
		DocumentsProcessed: documents,
		EntriesProduced:    total.EntriesProduced,
		Duration:           o.now().Sub(started),
	}

	if err := o.notifier.NotifyCompleted(ctx, dest, result, build); err != nil {
		return nil, &domain.SyncError{Kind: domain.ClassifyError(err), Stage: "notify completed", Err: err}
	}
	o.finish(status, domain.PhaseCompleted)

	logger.Info("Sync complete: %d documents, %d entries in %s",
		result.TotalCount, build.EntriesProduced, build.Duration)
	return &domain.SyncSummary{Result: result, Build: build}, nil
}

// fail sends the single error notification for a failed run.
// A delivery failure is logged and recorded but never replaces err.
func (o *SyncOrchestrator) fail(ctx context.Context, dest domain.Destination, status *driving.SyncStatus, err error) {
	failure := domain.SyncFailure{
		Kind:    domain.ClassifyError(err),
		Message: failureMessage(err),
	}
	logger.Error("Sync failed (%s): %v", failure.Kind, err)

	notifyErr := o.notifier.NotifyError(ctx, dest, failure)
	if notifyErr != nil {
		logger.Warn("Failed to deliver sync error notice to %s: %v", dest, notifyErr)
	}

	o.update(status, func(s *driving.SyncStatus) {
		s.Phase = domain.PhaseFailed
		s.Running = false
		s.Err = err
		s.NotifyErr = notifyErr
	})
}

// failureMessage is the user-facing detail line of an error notice.
func failureMessage(err error) string {
	var syncErr *domain.SyncError
	if errors.As(err, &syncErr) {
		return fmt.Sprintf("%s failed: %v", syncErr.Stage, syncErr.Err)
	}
	return err.Error()
}

// Status returns the latest sync status for a destination.
func (o *SyncOrchestrator) Status(_ context.Context, dest domain.Destination) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.statuses[dest]; ok {
		// Return a copy to avoid race conditions
		cp := *status
		return &cp, nil
	}

	return &driving.SyncStatus{
		Destination: dest,
		Phase:       domain.PhaseNotStarted,
	}, nil
}

// setStatus registers the status of a new run and forgets the oldest
// finished runs beyond MaxTrackedStatuses.
func (o *SyncOrchestrator) setStatus(dest domain.Destination, status *driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.statuses[dest]; ok {
		o.order = slices.DeleteFunc(o.order, func(d domain.Destination) bool { return d == dest })
	}
	o.statuses[dest] = status
	o.order = append(o.order, dest)

	for i := 0; len(o.statuses) > MaxTrackedStatuses && i < len(o.order); {
		d := o.order[i]
		if o.statuses[d].Running {
			i++
			continue
		}
		delete(o.statuses, d)
		o.order = slices.Delete(o.order, i, i+1)
	}
}

// update mutates a status under the lock.
func (o *SyncOrchestrator) update(status *driving.SyncStatus, fn func(*driving.SyncStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(status)
}

func (o *SyncOrchestrator) setPhase(status *driving.SyncStatus, phase domain.SyncPhase) {
	o.update(status, func(s *driving.SyncStatus) {
		s.Phase = phase
	})
}

func (o *SyncOrchestrator) finish(status *driving.SyncStatus, phase domain.SyncPhase) {
	o.update(status, func(s *driving.SyncStatus) {
		s.Phase = phase
		s.Running = false
	})
}
