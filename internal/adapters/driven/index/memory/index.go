// Package memory provides an in-memory index backend.
// It keeps nothing across restarts and is meant for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/postprocessors/chunker"
)

// Ensure Index implements the interfaces.
var (
	_ driven.IndexBackend = (*Index)(nil)
	_ driven.Retriever    = (*Index)(nil)
)

// Index is an in-memory implementation of driven.IndexBackend and
// driven.Retriever. Retrieval scores chunks by query term frequency.
type Index struct {
	mu        sync.RWMutex
	documents map[domain.DocumentID]domain.Document
	chunks    map[domain.DocumentID][]chunker.Chunk
	chunker   *chunker.Processor
	updatedAt time.Time
	now       func() time.Time
}

// NewIndex creates a new in-memory index.
func NewIndex() *Index {
	return &Index{
		documents: make(map[domain.DocumentID]domain.Document),
		chunks:    make(map[domain.DocumentID][]chunker.Chunk),
		chunker:   chunker.New(),
		now:       time.Now,
	}
}

// Clear removes all documents.
func (i *Index) Clear(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	clear(i.documents)
	clear(i.chunks)
	i.updatedAt = i.now()
	return nil
}

// AddDocuments stores or replaces documents.
func (i *Index) AddDocuments(ctx context.Context, docs []domain.Document) (domain.IndexBuildResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.IndexBuildResult{}, err
	}
	started := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()

	var entries int
	for _, doc := range docs {
		chunks := i.chunker.Split(doc)
		i.documents[doc.ID] = doc
		i.chunks[doc.ID] = chunks
		entries += len(chunks)
	}
	i.updatedAt = i.now()

	return domain.IndexBuildResult{
		DocumentsProcessed: len(docs),
		EntriesProduced:    entries,
		Duration:           i.updatedAt.Sub(started),
	}, nil
}

// Status reports document and chunk counts.
func (i *Index) Status(_ context.Context) (domain.IndexStatus, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var entries int
	for _, chunks := range i.chunks {
		entries += len(chunks)
	}
	return domain.IndexStatus{
		Available: entries > 0,
		Documents: len(i.documents),
		Entries:   entries,
		UpdatedAt: i.updatedAt,
	}, nil
}

// Retrieve returns the chunks containing the most query term occurrences.
// Ties are broken by document id and chunk position.
func (i *Index) Retrieve(_ context.Context, query string, limit int) ([]domain.Passage, error) {
	terms := make(map[string]bool)
	for _, t := range tokenize(query) {
		terms[t] = true
	}
	if len(terms) == 0 || limit <= 0 {
		return []domain.Passage{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	type hit struct {
		chunk chunker.Chunk
		score int
	}
	var hits []hit
	for id, chunks := range i.chunks {
		doc := i.documents[id]
		for _, c := range chunks {
			words := tokenize(doc.Title + " " + c.Content)
			score := 0
			for _, w := range words {
				if terms[w] {
					score++
				}
			}
			if score > 0 {
				hits = append(hits, hit{chunk: c, score: score})
			}
		}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		if hits[a].chunk.DocumentID != hits[b].chunk.DocumentID {
			return hits[a].chunk.DocumentID < hits[b].chunk.DocumentID
		}
		return hits[a].chunk.Position < hits[b].chunk.Position
	})

	passages := make([]domain.Passage, 0, min(limit, len(hits)))
	for _, h := range hits {
		if len(passages) == limit {
			break
		}
		doc := i.documents[h.chunk.DocumentID]
		passages = append(passages, domain.Passage{
			DocumentID: doc.ID,
			Title:      doc.Title,
			SourceURL:  doc.SourceURL,
			Content:    h.chunk.Content,
			Score:      domain.Score(h.score),
		})
	}
	return passages, nil
}

// tokenize lower-cases s and splits it into words.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
