// Package filesystem reads text documents from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/normalisers"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// MaxFileSize is the largest file read; bigger files are skipped.
const MaxFileSize = 1024 * 1024

// DefaultExtensions are the file types read when none are configured.
var DefaultExtensions = []string{".md", ".markdown", ".txt", ".rst", ".html", ".htm"}

// extMIMETypes maps file extensions to MIME types for common types not in Go's registry.
var extMIMETypes = map[string]string{
	".md": "text/markdown", ".markdown": "text/markdown",
	".rst": "text/x-rst", ".txt": "text/plain",
	".yaml": "text/yaml", ".yml": "text/yaml", ".toml": "text/toml",
}

// Source walks a directory tree and yields one document per text file.
// Hidden files and directories are skipped. Document ids are paths
// relative to the root, with forward slashes.
type Source struct {
	root       string
	extensions map[string]bool
}

// New creates a filesystem source rooted at root.
// Extensions are matched case-insensitively and include the dot.
func New(root string, extensions ...string) *Source {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return &Source{root: root, extensions: exts}
}

// Name identifies the source.
func (s *Source) Name() string {
	return "filesystem:" + s.root
}

// Root returns the directory the source reads.
func (s *Source) Root() string {
	return s.root
}

// Documents walks the tree lazily. A missing root yields an error
// matching domain.ErrNotFound.
func (s *Source) Documents(ctx context.Context) iter.Seq2[domain.Document, error] {
	return func(yield func(domain.Document, error) bool) {
		info, err := os.Stat(s.root)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			yield(domain.Document{}, fmt.Errorf("%w: source directory %s", domain.ErrNotFound, s.root))
			return
		case err != nil:
			yield(domain.Document{}, fmt.Errorf("stat %s: %w", s.root, err))
			return
		case !info.IsDir():
			yield(domain.Document{}, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, s.root))
			return
		}

		stopped := false
		walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			if rel != "." && IsHidden(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !s.extensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			doc, ok, err := s.read(path, rel, d)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if !yield(doc, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if walkErr != nil && !stopped {
			yield(domain.Document{}, fmt.Errorf("walk %s: %w", s.root, walkErr))
		}
	}
}

// read loads one file. ok is false for files that are skipped.
func (s *Source) read(path, rel string, d fs.DirEntry) (domain.Document, bool, error) {
	info, err := d.Info()
	if err != nil {
		return domain.Document{}, false, err
	}
	if info.Size() > MaxFileSize {
		logger.Debug("Skipping %s: %d bytes exceeds limit", rel, info.Size())
		return domain.Document{}, false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("read %s: %w", rel, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		logger.Debug("Skipping %s: empty", rel)
		return domain.Document{}, false, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	title, text := normalisers.Normalise(path, string(content))
	if text == "" {
		logger.Debug("Skipping %s: no text after formatting is removed", rel)
		return domain.Document{}, false, nil
	}
	doc, err := domain.NewDocument(
		filepath.ToSlash(rel),
		title,
		text,
		"file://"+filepath.ToSlash(abs),
		map[string]any{
			"path":     filepath.ToSlash(rel),
			"size":     info.Size(),
			"mime":     detectMIMEType(path),
			"modified": info.ModTime().UTC().Format(time.RFC3339),
		},
		time.Now(),
	)
	if err != nil {
		return domain.Document{}, false, err
	}
	return doc, true, nil
}

// IsHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func IsHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// detectMIMEType determines the MIME type from file extension.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := extMIMETypes[ext]; ok {
		return t
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		// Strip charset and other parameters.
		if idx := strings.Index(mimeType, ";"); idx != -1 {
			mimeType = strings.TrimSpace(mimeType[:idx])
		}
		return mimeType
	}
	return "application/octet-stream"
}
