// Package sqlite provides a full-text index backend on SQLite FTS5.
//
// Documents are cut into overlapping chunks; each chunk is one FTS5 row and
// counts as one index entry. Retrieval ranks chunks with bm25.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-chat/internal/retry"
)

// Ensure Index implements the interfaces.
var (
	_ driven.IndexBackend = (*Index)(nil)
	_ driven.Retriever    = (*Index)(nil)
)

const metaUpdatedAt = "updated_at"

// Index is an FTS5-backed IndexBackend and Retriever.
type Index struct {
	db      *sql.DB
	path    string
	chunker *chunker.Processor
	policy  domain.RetryPolicy
	now     func() time.Time
}

// Option configures an Index.
type Option func(*Index)

// WithChunker replaces the default chunker.
func WithChunker(p *chunker.Processor) Option {
	return func(i *Index) {
		if p != nil {
			i.chunker = p
		}
	}
}

// WithRetryPolicy sets the retry policy for index mutations.
func WithRetryPolicy(p domain.RetryPolicy) Option {
	return func(i *Index) {
		i.policy = p
	}
}

// NewIndex opens or creates the index in dataDir.
// If dataDir is empty, defaults to ~/.sercha-chat/data/index.db.
func NewIndex(dataDir string, opts ...Option) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-chat", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{
		db:      db,
		path:    dbPath,
		chunker: chunker.New(),
		policy:  domain.DefaultRetryPolicy(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}

	// Run migrations
	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return idx, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Clear removes every document and chunk.
func (i *Index) Clear(ctx context.Context) error {
	return retry.Run(ctx, i.policy, func(ctx context.Context) error {
		return i.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
				return fmt.Errorf("deleting chunks: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
				return fmt.Errorf("deleting documents: %w", err)
			}
			return i.touch(ctx, tx)
		})
	}, retry.WithObserver(logRetry("clear index")))
}

// AddDocuments chunks and indexes a batch in one transaction.
// Re-adding a document replaces its previous chunks.
func (i *Index) AddDocuments(ctx context.Context, docs []domain.Document) (domain.IndexBuildResult, error) {
	started := i.now()

	entries, err := retry.Do(ctx, i.policy, func(ctx context.Context) (int, error) {
		var entries int
		err := i.withTx(ctx, func(tx *sql.Tx) error {
			for idx := range docs {
				n, err := i.insertDocument(ctx, tx, docs[idx])
				if err != nil {
					return err
				}
				entries += n
			}
			return i.touch(ctx, tx)
		})
		return entries, err
	}, retry.WithObserver(logRetry("add documents")))
	if err != nil {
		return domain.IndexBuildResult{}, err
	}

	return domain.IndexBuildResult{
		DocumentsProcessed: len(docs),
		EntriesProduced:    entries,
		Duration:           i.now().Sub(started),
	}, nil
}

func (i *Index) insertDocument(ctx context.Context, tx *sql.Tx, doc domain.Document) (int, error) {
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshalling metadata of %s: %w", doc.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, source_url, metadata, fetched_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source_url = excluded.source_url,
			metadata = excluded.metadata,
			fetched_at = excluded.fetched_at,
			indexed_at = excluded.indexed_at
	`, doc.ID.String(), doc.Title, doc.SourceURL, string(metaJSON), nullTime(doc.FetchedAt), i.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("inserting document %s: %w", doc.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID.String()); err != nil {
		return 0, fmt.Errorf("deleting chunks of %s: %w", doc.ID, err)
	}

	chunks := i.chunker.Split(doc)
	for _, c := range chunks {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (chunk_id, document_id, position, title, content) VALUES (?, ?, ?, ?, ?)",
			c.ID, c.DocumentID.String(), c.Position, doc.Title, c.Content)
		if err != nil {
			return 0, fmt.Errorf("inserting chunk %d of %s: %w", c.Position, doc.ID, err)
		}
	}

	return len(chunks), nil
}

// Status reports document and chunk counts.
func (i *Index) Status(ctx context.Context) (domain.IndexStatus, error) {
	var status domain.IndexStatus

	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&status.Documents); err != nil {
		return domain.IndexStatus{}, fmt.Errorf("counting documents: %w", err)
	}
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&status.Entries); err != nil {
		return domain.IndexStatus{}, fmt.Errorf("counting chunks: %w", err)
	}
	status.Available = status.Entries > 0

	var updated string
	err := i.db.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", metaUpdatedAt).Scan(&updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return domain.IndexStatus{}, fmt.Errorf("reading %s: %w", metaUpdatedAt, err)
	default:
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			status.UpdatedAt = t
		}
	}

	return status, nil
}

// Retrieve returns the best matching chunks for query.
// Any word of the query may match; bm25 ranks the results.
func (i *Index) Retrieve(ctx context.Context, query string, limit int) ([]domain.Passage, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return []domain.Passage{}, nil
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT c.document_id, c.title, c.content, d.source_url, c.bm25_rank
		FROM (
			SELECT document_id, title, content, bm25(chunks) AS bm25_rank
			FROM chunks
			WHERE chunks MATCH ?
			ORDER BY bm25_rank
			LIMIT ?
		) c
		JOIN documents d ON d.id = c.document_id
		ORDER BY c.bm25_rank
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	passages := make([]domain.Passage, 0, limit)
	for rows.Next() {
		var (
			p    domain.Passage
			id   string
			rank float64
		)
		if err := rows.Scan(&id, &p.Title, &p.Content, &p.SourceURL, &rank); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		p.DocumentID = domain.DocumentID(id)
		// bm25 is lower-is-better
		p.Score = domain.Score(-rank)
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return passages, nil
}

// matchExpression turns free text into an FTS5 OR query of quoted terms.
func matchExpression(query string) string {
	terms := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(terms))
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if seen[t] {
			continue
		}
		seen[t] = true
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func (i *Index) touch(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaUpdatedAt, i.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("updating %s: %w", metaUpdatedAt, err)
	}
	return nil
}

func (i *Index) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (i *Index) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := i.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := i.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("Applied index migration %s", name)
	}

	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func logRetry(op string) func(retry.Attempt) {
	return func(a retry.Attempt) {
		logger.Warn("Retrying %s (attempt %d) in %s: %v", op, a.Number+1, a.Delay, a.Err)
	}
}
