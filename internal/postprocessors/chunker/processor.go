// Package chunker splits documents into fixed-size overlapping passages.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunk is one indexable passage of a document.
type Chunk struct {
	ID         string
	DocumentID domain.DocumentID
	Content    string
	Position   int
}

// Processor splits document content into fixed-size chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Split cuts the document content into chunks. Sizes count characters,
// not bytes. Whitespace-only content produces no chunks.
func (p *Processor) Split(doc domain.Document) []Chunk {
	if strings.TrimSpace(doc.Content) == "" {
		return nil
	}

	content := []rune(doc.Content)
	step := p.chunkSize - p.overlap
	chunks := make([]Chunk, 0, len(content)/step+1)

	for start, position := 0, 0; start < len(content); start, position = start+step, position+1 {
		end := min(start+p.chunkSize, len(content))
		chunks = append(chunks, Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    string(content[start:end]),
			Position:   position,
		})
		if end == len(content) {
			break
		}
	}

	return chunks
}
