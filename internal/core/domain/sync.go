package domain

import "time"

// MaxFailedPreview is how many failed ids a user-facing message lists.
const MaxFailedPreview = 5

// ItemOutcome is the result of processing one item in a run.
type ItemOutcome struct {
	ID      DocumentID
	Success bool
}

// SyncResult aggregates the outcomes of one synchronisation run.
// SuccessCount + FailedCount == TotalCount and len(FailedIDs) == FailedCount.
type SyncResult struct {
	TotalCount   int
	SuccessCount int
	FailedCount  int
	FailedIDs    []DocumentID
}

// NewSyncResult builds a SyncResult from item outcomes.
// Failed ids keep their original order.
func NewSyncResult(outcomes []ItemOutcome) SyncResult {
	result := SyncResult{
		TotalCount: len(outcomes),
		FailedIDs:  []DocumentID{},
	}
	for _, o := range outcomes {
		if o.Success {
			result.SuccessCount++
			continue
		}
		result.FailedCount++
		result.FailedIDs = append(result.FailedIDs, o.ID)
	}
	return result
}

// SucceededResult is the result of a run in which all count items succeeded.
func SucceededResult(count int) SyncResult {
	return SyncResult{
		TotalCount:   count,
		SuccessCount: count,
		FailedIDs:    []DocumentID{},
	}
}

// FailedPreview returns at most MaxFailedPreview failed ids and the number
// of ids left out.
func (r SyncResult) FailedPreview() ([]DocumentID, int) {
	if len(r.FailedIDs) <= MaxFailedPreview {
		return r.FailedIDs, 0
	}
	return r.FailedIDs[:MaxFailedPreview], len(r.FailedIDs) - MaxFailedPreview
}

// IndexBuildResult is what the index backend reports for a batch or a run.
// EntriesProduced is approximate: a document may become any number of entries.
type IndexBuildResult struct {
	DocumentsProcessed int
	EntriesProduced    int
	Duration           time.Duration
}

// Add accumulates another result's counts. Durations are summed.
func (r IndexBuildResult) Add(other IndexBuildResult) IndexBuildResult {
	return IndexBuildResult{
		DocumentsProcessed: r.DocumentsProcessed + other.DocumentsProcessed,
		EntriesProduced:    r.EntriesProduced + other.EntriesProduced,
		Duration:           r.Duration + other.Duration,
	}
}

// IndexStatus describes the current state of the index.
type IndexStatus struct {
	// Available is true when the index holds at least one entry.
	Available bool

	// Documents is the number of indexed documents.
	Documents int

	// Entries is the number of index entries.
	Entries int

	// UpdatedAt is when the index was last written. Zero if never.
	UpdatedAt time.Time
}

// SyncSummary is what a completed run returns to its caller.
type SyncSummary struct {
	Result SyncResult
	Build  IndexBuildResult
}

// SyncFailure is the payload of an error notification.
type SyncFailure struct {
	Kind    ErrorKind
	Message string
}

// SyncPhase is the state of a sync run.
type SyncPhase string

const (
	PhaseNotStarted   SyncPhase = "not_started"
	PhaseNotified     SyncPhase = "notified"
	PhaseIndexCleared SyncPhase = "index_cleared"
	PhaseBatching     SyncPhase = "batching"
	PhaseCompleted    SyncPhase = "completed"
	PhaseNoDocuments  SyncPhase = "no_documents"
	PhaseFailed       SyncPhase = "failed"
)

// Terminal reports whether the phase ends a run.
func (p SyncPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseNoDocuments || p == PhaseFailed
}
