// Package github reads documents from a GitHub repository tree.
package github

import (
	"context"
	"fmt"
	"iter"
	"path"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/normalisers"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// MaxFileSize is the largest blob fetched; bigger files are skipped.
const MaxFileSize = 1024 * 1024

// DefaultExtensions are the file types read when none are configured.
var DefaultExtensions = []string{".md", ".markdown", ".txt", ".rst", ".html", ".htm"}

// Config configures a GitHub source.
type Config struct {
	Owner      string
	Repo       string
	Ref        string // Branch, tag or commit; the default branch when empty
	Token      string
	PathPrefix string
	Extensions []string
	BaseURL    string // API root; https://api.github.com/ when empty

	RatePerSecond float64
	Retry         domain.RetryPolicy
}

// Source yields one document per matching file in a repository.
// Document ids are repository paths.
type Source struct {
	cfg        Config
	client     *Client
	extensions map[string]bool
	now        func() time.Time
}

// New creates a GitHub source.
func New(cfg Config) (*Source, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("%w: github owner and repo are required", domain.ErrInvalidInput)
	}
	if cfg.Retry == (domain.RetryPolicy{}) {
		cfg.Retry = domain.DefaultRetryPolicy()
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}

	client, err := NewClient(cfg.Token, cfg.BaseURL, cfg.RatePerSecond, cfg.Retry)
	if err != nil {
		return nil, err
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extensions := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}

	return &Source{
		cfg:        cfg,
		client:     client,
		extensions: extensions,
		now:        time.Now,
	}, nil
}

// Name identifies the source.
func (s *Source) Name() string {
	return fmt.Sprintf("github:%s/%s", s.cfg.Owner, s.cfg.Repo)
}

// Documents lists the repository tree and fetches matching blobs lazily.
func (s *Source) Documents(ctx context.Context) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		ref, err := s.resolveRef(ctx)
		if err != nil {
			yield(domain.Document{}, err)
			return
		}

		tree, err := s.client.GetTree(ctx, s.cfg.Owner, s.cfg.Repo, ref)
		if err != nil {
			yield(domain.Document{}, fmt.Errorf("list %s@%s: %w", s.Name(), ref, err))
			return
		}
		if tree.GetTruncated() {
			logger.Warn("Tree for %s@%s was truncated, some files will be missing", s.Name(), ref)
		}

		for _, entry := range tree.Entries {
			if !s.wanted(entry) {
				continue
			}

			doc, ok, err := s.fetch(ctx, ref, entry)
			if err != nil {
				yield(domain.Document{}, err)
				return
			}
			if !ok {
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// resolveRef returns the configured ref or the default branch.
func (s *Source) resolveRef(ctx context.Context) (string, error) {
	if s.cfg.Ref != "" {
		return s.cfg.Ref, nil
	}
	repo, err := s.client.GetRepository(ctx, s.cfg.Owner, s.cfg.Repo)
	if err != nil {
		return "", fmt.Errorf("resolve default branch for %s: %w", s.Name(), err)
	}
	if branch := repo.GetDefaultBranch(); branch != "" {
		return branch, nil
	}
	return "HEAD", nil
}

// wanted filters tree entries down to readable text blobs.
func (s *Source) wanted(entry *gh.TreeEntry) bool {
	if entry.GetType() != "blob" {
		return false
	}
	p := entry.GetPath()
	if s.cfg.PathPrefix != "" && !strings.HasPrefix(p, strings.TrimPrefix(s.cfg.PathPrefix, "/")) {
		return false
	}
	if !s.extensions[strings.ToLower(path.Ext(p))] {
		return false
	}
	if entry.GetSize() > MaxFileSize {
		logger.Debug("Skipping %s: %d bytes exceeds limit", p, entry.GetSize())
		return false
	}
	return true
}

// fetch downloads one blob. ok is false for files that are skipped.
func (s *Source) fetch(ctx context.Context, ref string, entry *gh.TreeEntry) (domain.Document, bool, error) {
	p := entry.GetPath()
	content, err := s.client.GetBlobContent(ctx, s.cfg.Owner, s.cfg.Repo, entry.GetSHA())
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("fetch %s: %w", p, err)
	}

	title, text := normalisers.Normalise(p, content)
	if text == "" {
		logger.Debug("Skipping %s: empty", p)
		return domain.Document{}, false, nil
	}

	doc, err := domain.NewDocument(
		p,
		title,
		text,
		fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", s.cfg.Owner, s.cfg.Repo, ref, p),
		map[string]any{
			"path": p,
			"sha":  entry.GetSHA(),
			"size": entry.GetSize(),
			"repo": s.cfg.Owner + "/" + s.cfg.Repo,
			"ref":  ref,
		},
		s.now(),
	)
	if err != nil {
		return domain.Document{}, false, err
	}
	return doc, true, nil
}
