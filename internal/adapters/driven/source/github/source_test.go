package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/retry"
)

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func blob(content string) map[string]any {
	return map[string]any{
		"encoding": "base64",
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
	}
}

// newRepoServer serves a small repository on branch "main".
func newRepoServer(t *testing.T, blobs map[string]string, entries []treeEntry) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var blobCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/handbook", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"name": "handbook", "default_branch": "main"})
	})
	mux.HandleFunc("GET /repos/acme/handbook/git/trees/{ref}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("ref") != "main" {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sha": "root", "tree": entries})
	})
	mux.HandleFunc("GET /repos/acme/handbook/git/blobs/{sha}", func(w http.ResponseWriter, r *http.Request) {
		blobCalls.Add(1)
		content, ok := blobs[r.PathValue("sha")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, blob(content))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &blobCalls
}

func newTestSource(t *testing.T, cfg Config) *Source {
	t.Helper()
	cfg.Owner = "acme"
	cfg.Repo = "handbook"
	cfg.RatePerSecond = 1000
	if cfg.Retry == (domain.RetryPolicy{}) {
		cfg.Retry = domain.RetryPolicy{
			MaxRetries:   2,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   2,
		}
	}
	s, err := New(cfg)
	require.NoError(t, err)
	s.client.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

func collect(s *Source) ([]domain.Document, error) {
	var docs []domain.Document
	for doc, err := range s.Documents(context.Background()) {
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Repo: "handbook"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(Config{Owner: "acme", Repo: "handbook", Retry: domain.RetryPolicy{MaxRetries: -1}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSource_Name(t *testing.T) {
	s := newTestSource(t, Config{})
	assert.Equal(t, "github:acme/handbook", s.Name())
}

func TestSource_Documents(t *testing.T) {
	srv, _ := newRepoServer(t,
		map[string]string{
			"s1": "# Handbook\n\nWelcome to **Acme**.",
			"s2": "Vacation is 25 days.",
			"s3": "   ",
		},
		[]treeEntry{
			{Path: "docs", Type: "tree", SHA: "d1"},
			{Path: "README.md", Type: "blob", SHA: "s1", Size: 40},
			{Path: "docs/leave.txt", Type: "blob", SHA: "s2", Size: 20},
			{Path: "docs/blank.md", Type: "blob", SHA: "s3", Size: 3},
			{Path: "logo.png", Type: "blob", SHA: "s4", Size: 10},
			{Path: "huge.md", Type: "blob", SHA: "s5", Size: MaxFileSize + 1},
		})
	s := newTestSource(t, Config{BaseURL: srv.URL})

	docs, err := collect(s)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, domain.DocumentID("README.md"), docs[0].ID)
	assert.Equal(t, "Handbook", docs[0].Title)
	assert.Equal(t, "Handbook\n\nWelcome to Acme.", docs[0].Content)
	assert.Equal(t, "https://github.com/acme/handbook/blob/main/README.md", docs[0].SourceURL)
	assert.Equal(t, "s1", docs[0].Metadata["sha"])
	assert.Equal(t, "main", docs[0].Metadata["ref"])

	assert.Equal(t, domain.DocumentID("docs/leave.txt"), docs[1].ID)
	assert.Equal(t, "Vacation is 25 days.", docs[1].Content)
}

func TestSource_PathPrefix(t *testing.T) {
	srv, _ := newRepoServer(t,
		map[string]string{"s1": "root", "s2": "nested"},
		[]treeEntry{
			{Path: "README.md", Type: "blob", SHA: "s1", Size: 4},
			{Path: "docs/guide.md", Type: "blob", SHA: "s2", Size: 6},
		})
	s := newTestSource(t, Config{BaseURL: srv.URL, Ref: "main", PathPrefix: "/docs/"})

	docs, err := collect(s)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.DocumentID("docs/guide.md"), docs[0].ID)
}

func TestSource_UnknownRefIsNotFound(t *testing.T) {
	srv, _ := newRepoServer(t, nil, nil)
	s := newTestSource(t, Config{BaseURL: srv.URL, Ref: "missing"})

	_, err := collect(s)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.KindNotFound, domain.ClassifyError(err))
	assert.False(t, retry.IsExhausted(err))
}

func TestSource_MissingBlobStopsIteration(t *testing.T) {
	srv, _ := newRepoServer(t,
		map[string]string{"s1": "first"},
		[]treeEntry{
			{Path: "a.md", Type: "blob", SHA: "s1", Size: 5},
			{Path: "b.md", Type: "blob", SHA: "gone", Size: 5},
			{Path: "c.md", Type: "blob", SHA: "s1", Size: 5},
		})
	s := newTestSource(t, Config{BaseURL: srv.URL, Ref: "main"})

	docs, err := collect(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch b.md")
	assert.Len(t, docs, 1)
}

func TestSource_EarlyStopFetchesNoMore(t *testing.T) {
	srv, blobCalls := newRepoServer(t,
		map[string]string{"s1": "one", "s2": "two"},
		[]treeEntry{
			{Path: "a.md", Type: "blob", SHA: "s1", Size: 3},
			{Path: "b.md", Type: "blob", SHA: "s2", Size: 3},
		})
	s := newTestSource(t, Config{BaseURL: srv.URL, Ref: "main"})

	for _, err := range s.Documents(context.Background()) {
		require.NoError(t, err)
		break
	}
	assert.Equal(t, int32(1), blobCalls.Load())
}

func TestSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusBadGateway, map[string]any{"message": "Bad Gateway"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sha": "root", "tree": []treeEntry{}})
	}))
	t.Cleanup(srv.Close)
	s := newTestSource(t, Config{BaseURL: srv.URL, Ref: "main"})

	docs, err := collect(s)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSource_ExhaustedRetriesAreSystemFaults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	}))
	t.Cleanup(srv.Close)
	s := newTestSource(t, Config{BaseURL: srv.URL})

	_, err := collect(s)
	require.Error(t, err)
	assert.True(t, retry.IsExhausted(err))
	assert.Equal(t, domain.KindSystem, domain.ClassifyError(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRateLimiter_UpdateFromResponse(t *testing.T) {
	rl := NewRateLimiter(0)
	assert.Equal(t, -1, rl.Remaining())

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(HeaderRateRemaining, "42")
	resp.Header.Set(HeaderRateReset, "1700000000")
	rl.UpdateFromResponse(resp)

	assert.Equal(t, 42, rl.Remaining())
	assert.Equal(t, time.Unix(1700000000, 0), rl.resetTime)

	rl.UpdateFromResponse(nil)
	assert.Equal(t, 42, rl.Remaining())
}

func TestRateLimiter_WaitsForResetWhenLow(t *testing.T) {
	rl := NewRateLimiter(1000)
	rl.remaining = 1
	rl.resetTime = time.Now().Add(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)

	rl.resetTime = time.Now().Add(-time.Second)
	require.NoError(t, rl.Wait(context.Background()))
}

func TestWrapError(t *testing.T) {
	err := wrapError(context.Canceled, "get tree")
	assert.Equal(t, context.Canceled, err)

	var remote *domain.RemoteError
	err = wrapError(assert.AnError, "get tree")
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "github get tree", remote.Op)
	assert.Zero(t, remote.StatusCode)
}
