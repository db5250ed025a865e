package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

func TestHandleAsk(t *testing.T) {
	t.Run("maps answer and sources", func(t *testing.T) {
		query := &mockQueryService{answer: &domain.Answer{
			Text:      "Laptop repairs go to IT [1].",
			Generated: true,
			Sources: []domain.Passage{{
				DocumentID: "it/laptops.md",
				Title:      "Laptops",
				SourceURL:  "file:///docs/it/laptops.md",
				Content:    "Laptop repairs go to IT.",
				Score:      2.5,
			}},
		}}
		s := &Server{ports: &Ports{Query: query}}

		result, output, err := s.handleAsk(context.Background(), nil, AskInput{Question: "laptops?"})
		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, "laptops?", query.question)
		assert.Equal(t, "Laptop repairs go to IT [1].", output.Answer)
		assert.True(t, output.Generated)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, PassageOutput{
			DocumentID: "it/laptops.md",
			Title:      "Laptops",
			URL:        "file:///docs/it/laptops.md",
			Score:      2.5,
			Content:    "Laptop repairs go to IT.",
		}, output.Sources[0])
	})

	t.Run("empty index suggests sync", func(t *testing.T) {
		s := &Server{ports: &Ports{Query: &mockQueryService{err: domain.ErrIndexEmpty}}}

		_, _, err := s.handleAsk(context.Background(), nil, AskInput{Question: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync")
	})

	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		s := &Server{ports: &Ports{Query: &mockQueryService{err: boom}}}

		_, _, err := s.handleAsk(context.Background(), nil, AskInput{Question: "x"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestHandleSync(t *testing.T) {
	t.Run("no runner", func(t *testing.T) {
		s := &Server{ports: &Ports{Query: &mockQueryService{}}}

		_, _, err := s.handleSync(context.Background(), nil, SyncInput{})
		assert.ErrorIs(t, err, ErrSyncUnavailable)
	})

	t.Run("reports summary", func(t *testing.T) {
		runner := &mockSyncRunner{summary: &domain.SyncSummary{
			Result: domain.SyncResult{
				TotalCount:   3,
				SuccessCount: 2,
				FailedCount:  1,
				FailedIDs:    []domain.DocumentID{"bad.md"},
			},
			Build: domain.IndexBuildResult{
				DocumentsProcessed: 3,
				EntriesProduced:    7,
				Duration:           1500 * time.Millisecond,
			},
		}}
		src := requester(t)
		s := &Server{ports: &Ports{Query: &mockQueryService{}, Runner: runner, Requester: src}}

		_, output, err := s.handleSync(context.Background(), nil, SyncInput{})
		require.NoError(t, err)
		assert.Equal(t, SyncOutput{
			Documents:  3,
			Entries:    7,
			Succeeded:  2,
			Failed:     1,
			FailedIDs:  []string{"bad.md"},
			DurationMS: 1500,
		}, output)
		require.Len(t, runner.reqs, 1)
		assert.Equal(t, src, runner.reqs[0].Source)
		assert.Empty(t, runner.reqs[0].ReplyToken)
	})

	t.Run("sync in progress", func(t *testing.T) {
		runner := &mockSyncRunner{err: domain.ErrSyncInProgress}
		s := &Server{ports: &Ports{Query: &mockQueryService{}, Runner: runner, Requester: requester(t)}}

		_, _, err := s.handleSync(context.Background(), nil, SyncInput{})
		assert.ErrorIs(t, err, domain.ErrSyncInProgress)
	})
}

func TestHandleStatus(t *testing.T) {
	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("index only", func(t *testing.T) {
		query := &mockQueryService{status: domain.IndexStatus{
			Available: true, Documents: 4, Entries: 9, UpdatedAt: updated,
		}}
		s := &Server{ports: &Ports{Query: query}}

		_, output, err := s.handleStatus(context.Background(), nil, StatusInput{})
		require.NoError(t, err)
		assert.Equal(t, StatusOutput{
			Available: true,
			Documents: 4,
			Entries:   9,
			UpdatedAt: "2026-03-01T09:30:00Z",
		}, output)
	})

	t.Run("includes last sync", func(t *testing.T) {
		syncSvc := &mockSyncService{status: &driving.SyncStatus{
			Phase:              domain.PhaseFailed,
			DocumentsProcessed: 10,
			Batches:            2,
			Err:                errors.New("source unavailable"),
		}}
		src := requester(t)
		s := &Server{ports: &Ports{Query: &mockQueryService{}, Sync: syncSvc, Requester: src}}

		_, output, err := s.handleStatus(context.Background(), nil, StatusInput{})
		require.NoError(t, err)
		assert.Equal(t, src.Destination(), syncSvc.dest)
		require.NotNil(t, output.LastSync)
		assert.Equal(t, SyncReport{
			Phase:     string(domain.PhaseFailed),
			Documents: 10,
			Batches:   2,
			Error:     "source unavailable",
		}, *output.LastSync)
		assert.Empty(t, output.UpdatedAt)
	})

	t.Run("never synced omits last sync", func(t *testing.T) {
		syncSvc := &mockSyncService{status: &driving.SyncStatus{Phase: domain.PhaseNotStarted}}
		s := &Server{ports: &Ports{Query: &mockQueryService{}, Sync: syncSvc, Requester: requester(t)}}

		_, output, err := s.handleStatus(context.Background(), nil, StatusInput{})
		require.NoError(t, err)
		assert.Nil(t, output.LastSync)
	})
}

func TestHandleStatusResource(t *testing.T) {
	query := &mockQueryService{status: domain.IndexStatus{Available: true, Documents: 1, Entries: 2}}
	s := &Server{ports: &Ports{Query: query}}

	req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: statusURI}}
	result, err := s.handleStatusResource(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, statusURI, result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var got StatusOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
	assert.Equal(t, StatusOutput{Available: true, Documents: 1, Entries: 2}, got)
}
