package driven

import (
	"context"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// IndexBackend ingests documents into the searchable index.
// All methods may fail with a system fault.
type IndexBackend interface {
	// Clear discards every entry in the index.
	Clear(ctx context.Context) error

	// AddDocuments indexes a batch of documents.
	// EntriesProduced in the result is approximate.
	AddDocuments(ctx context.Context, docs []domain.Document) (domain.IndexBuildResult, error)

	// Status reports whether the index holds any entries.
	Status(ctx context.Context) (domain.IndexStatus, error)
}

// Retriever finds indexed passages relevant to a query.
type Retriever interface {
	// Retrieve returns at most limit passages, best first.
	Retrieve(ctx context.Context, query string, limit int) ([]domain.Passage, error)
}
