package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentID(t *testing.T) {
	id, err := NewDocumentID("page-1")
	require.NoError(t, err)
	assert.Equal(t, "page-1", id.String())

	_, err = NewDocumentID("   ")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestNewDocument_Valid(t *testing.T) {
	fetched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	meta := map[string]any{"author": "alice", "views": 3}

	doc, err := NewDocument("page-1", "Title", "Body", "https://example.com/p1", meta, fetched)
	require.NoError(t, err)

	assert.Equal(t, DocumentID("page-1"), doc.ID)
	assert.Equal(t, "Title", doc.Title)
	assert.Equal(t, "Body", doc.Content)
	assert.Equal(t, "https://example.com/p1", doc.SourceURL)
	assert.Equal(t, fetched, doc.FetchedAt)
	assert.Equal(t, "alice", doc.Metadata["author"])

	// Metadata is copied at construction
	meta["author"] = "mallory"
	assert.Equal(t, "alice", doc.Metadata["author"])
}

func TestNewDocument_FailsFast(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		title   string
		content string
	}{
		{"missing id", "", "Title", "Body"},
		{"missing title", "id", "", "Body"},
		{"blank title", "id", "  \n", "Body"},
		{"missing content", "id", "Title", ""},
		{"blank content", "id", "Title", "\t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDocument(tt.id, tt.title, tt.content, "", nil, time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestNewDocument_NilMetadata(t *testing.T) {
	doc, err := NewDocument("id", "Title", "Body", "", nil, time.Now())
	require.NoError(t, err)
	assert.NotNil(t, doc.Metadata)
	assert.Empty(t, doc.Metadata)
}

func TestDocument_WithMetadata(t *testing.T) {
	doc, err := NewDocument("id", "Title", "Body", "", map[string]any{"a": 1}, time.Now())
	require.NoError(t, err)

	updated := doc.WithMetadata("b", "two")

	assert.Equal(t, "two", updated.Metadata["b"])
	assert.Equal(t, 1, updated.Metadata["a"])
	_, ok := doc.Metadata["b"]
	assert.False(t, ok, "original document must not change")
}
