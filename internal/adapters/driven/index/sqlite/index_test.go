package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/postprocessors/chunker"
)

func newTestIndex(t *testing.T, opts ...Option) *Index {
	t.Helper()
	opts = append([]Option{WithRetryPolicy(domain.RetryPolicy{MaxRetries: 0, Multiplier: 1})}, opts...)
	idx, err := NewIndex(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func doc(t *testing.T, id, title, content string) domain.Document {
	t.Helper()
	d, err := domain.NewDocument(id, title, content, "https://example.com/"+id, map[string]any{"lang": "en"},
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return d
}

func TestNewIndex_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	idx, err := NewIndex(dir)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, filepath.Join(dir, "index.db"), idx.Path())
	assert.FileExists(t, idx.Path())
}

func TestNewIndex_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewIndex(dir)
	require.NoError(t, err)
	_, err = idx.AddDocuments(ctx, []domain.Document{doc(t, "a", "Alpha", "alpha content")})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// Migrations must not run twice.
	idx, err = NewIndex(dir)
	require.NoError(t, err)
	defer idx.Close()

	status, err := idx.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Documents)
}

func TestIndex_StatusEmpty(t *testing.T) {
	idx := newTestIndex(t)

	status, err := idx.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.Zero(t, status.Documents)
	assert.Zero(t, status.Entries)
	assert.True(t, status.UpdatedAt.IsZero())
}

func TestIndex_AddDocuments(t *testing.T) {
	idx := newTestIndex(t, WithChunker(chunker.New(chunker.WithChunkSize(20), chunker.WithOverlap(0))))
	ctx := context.Background()

	res, err := idx.AddDocuments(ctx, []domain.Document{
		doc(t, "a", "Alpha", strings.Repeat("a", 50)), // 3 chunks
		doc(t, "b", "Beta", "short"),                 // 1 chunk
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DocumentsProcessed)
	assert.Equal(t, 4, res.EntriesProduced)

	status, err := idx.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Available)
	assert.Equal(t, 2, status.Documents)
	assert.Equal(t, 4, status.Entries)
	assert.False(t, status.UpdatedAt.IsZero())
}

func TestIndex_AddDocumentsReplacesChunks(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, []domain.Document{doc(t, "a", "Alpha", "first version about apples")})
	require.NoError(t, err)
	_, err = idx.AddDocuments(ctx, []domain.Document{doc(t, "a", "Alpha", "second version about pears")})
	require.NoError(t, err)

	status, err := idx.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Documents)
	assert.Equal(t, 1, status.Entries)

	passages, err := idx.Retrieve(ctx, "apples", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestIndex_Clear(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, []domain.Document{doc(t, "a", "Alpha", "alpha"), doc(t, "b", "Beta", "beta")})
	require.NoError(t, err)

	require.NoError(t, idx.Clear(ctx))

	status, err := idx.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.Zero(t, status.Documents)
	assert.Zero(t, status.Entries)
}

func TestIndex_Retrieve(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, []domain.Document{
		doc(t, "onboarding", "Onboarding", "New hires receive a laptop and a badge on their first day."),
		doc(t, "holidays", "Holidays", "The office is closed between Christmas and New Year."),
		doc(t, "laptops", "Laptop policy", "Laptops are replaced every three years. Laptop repairs go to IT."),
	})
	require.NoError(t, err)

	passages, err := idx.Retrieve(ctx, "When do I get my laptop?", 5)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	ids := []domain.DocumentID{passages[0].DocumentID, passages[1].DocumentID}
	assert.ElementsMatch(t, []domain.DocumentID{"onboarding", "laptops"}, ids)
	assert.GreaterOrEqual(t, passages[0].Score, passages[1].Score)
	for _, p := range passages {
		assert.NotEmpty(t, p.Title)
		assert.Equal(t, "https://example.com/"+p.DocumentID.String(), p.SourceURL)
	}
}

func TestIndex_RetrieveLimit(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := make([]domain.Document, 10)
	for i := range docs {
		docs[i] = doc(t, fmt.Sprintf("d%d", i), "Doc", "shared keyword")
	}
	_, err := idx.AddDocuments(ctx, docs)
	require.NoError(t, err)

	passages, err := idx.Retrieve(ctx, "keyword", 3)
	require.NoError(t, err)
	assert.Len(t, passages, 3)
}

func TestIndex_RetrieveNoTerms(t *testing.T) {
	idx := newTestIndex(t)

	passages, err := idx.Retrieve(context.Background(), "?!  ...", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestIndex_RetrieveQuotesOperators(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.AddDocuments(ctx, []domain.Document{doc(t, "a", "Alpha", "apples and oranges")})
	require.NoError(t, err)

	// FTS5 syntax in user input must not break the query.
	passages, err := idx.Retrieve(ctx, `apples AND "NOT" NEAR(`, 5)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestIndex_ClosedDatabaseFails(t *testing.T) {
	idx, err := NewIndex(t.TempDir(), WithRetryPolicy(domain.RetryPolicy{MaxRetries: 0, Multiplier: 1}))
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	err = idx.Clear(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSystem)
}

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Laptop", `"laptop"`},
		{"laptop, LAPTOP badge", `"laptop" OR "badge"`},
		{`"quoted" (grouped)*`, `"quoted" OR "grouped"`},
		{"日本語 テスト", `"日本語" OR "テスト"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchExpression(tt.in), tt.in)
	}
}
