package domain

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// DocumentID identifies a document in its source system.
// IDs are reused from the source, never generated here.
type DocumentID string

// NewDocumentID validates and returns a DocumentID.
func NewDocumentID(id string) (DocumentID, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return DocumentID(id), nil
}

// String returns the raw identifier.
func (id DocumentID) String() string {
	return string(id)
}

// Document is a source document ready to be indexed.
// Construct it with NewDocument; a zero Document is not valid.
type Document struct {
	// ID is the identifier reused from the source system.
	ID DocumentID

	// Title is the human-readable title.
	Title string

	// Content is the full text content.
	Content string

	// Metadata contains flat key-value pairs of primitive values.
	Metadata map[string]any

	// SourceURL is the original location of the document.
	SourceURL string

	// FetchedAt is when the document was read from the source.
	FetchedAt time.Time
}

// NewDocument builds a Document, failing immediately when the id,
// title or content is blank. Metadata is copied.
func NewDocument(
	id, title, content, sourceURL string, metadata map[string]any, fetchedAt time.Time,
) (Document, error) {
	docID, err := NewDocumentID(id)
	if err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(title) == "" {
		return Document{}, fmt.Errorf("%w: document %s: title is required", ErrInvalidInput, id)
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, fmt.Errorf("%w: document %s: content is required", ErrInvalidInput, id)
	}

	meta := make(map[string]any, len(metadata))
	maps.Copy(meta, metadata)

	return Document{
		ID:        docID,
		Title:     title,
		Content:   content,
		Metadata:  meta,
		SourceURL: sourceURL,
		FetchedAt: fetchedAt,
	}, nil
}

// WithMetadata returns a copy of the document with an extra metadata entry.
func (d Document) WithMetadata(key string, value any) Document {
	meta := make(map[string]any, len(d.Metadata)+1)
	maps.Copy(meta, d.Metadata)
	meta[key] = value
	d.Metadata = meta
	return d
}

// Passage is a retrieved piece of an indexed document.
type Passage struct {
	DocumentID DocumentID
	Title      string
	SourceURL  string
	Content    string
	Score      Score
}

// Score is a relevance score; higher is better.
type Score float64

// Answer is the response to a user question.
type Answer struct {
	// Text is the answer shown to the user.
	Text string

	// Sources are the passages the answer was grounded on.
	Sources []Passage

	// Generated is false for extractive answers built without an LLM.
	Generated bool
}
