// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// AnswerReady carries the answer to a question back to the model.
type AnswerReady struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// SyncFinished is sent when a sync started from the TUI ends.
type SyncFinished struct {
	Summary *domain.SyncSummary
	Err     error
}

// StatusLoaded carries the index status.
type StatusLoaded struct {
	Status domain.IndexStatus
	Err    error
}
