package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// DocumentSource streams documents from an external system.
//
// Documents is single-pass and lazy: documents are fetched as the caller
// pulls them, never materialised as a whole. A failure is yielded as a
// non-nil error and ends the stream. Retrying individual fetches is the
// source's own business and invisible to callers.
type DocumentSource interface {
	// Name identifies the source for logs and status messages.
	Name() string

	// Documents returns a lazy stream of documents.
	Documents(ctx context.Context) iter.Seq2[domain.Document, error]
}
