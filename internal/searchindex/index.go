package searchindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"enchant/internal/apperr"
)

// Name is the fixed name of the subtitle index inside its directory.
const Name = "index_subtitles"

const lockRetryDelay = 50 * time.Millisecond

// Cue is the data indexed for one subtitle line.
type Cue struct {
	SequenceIndex int
	Start         time.Duration
	End           time.Duration
	Content       string
}

// Index is a persistent full-text index over subtitle cues.
type Index struct {
	db     *sql.DB
	dir    string
	path   string
	logger *slog.Logger

	writeMu sync.Mutex
	lock    *flock.Flock
}

// Option configures an Index.
type Option func(*Index)

// WithLogger routes index diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// OpenOrCreate opens the index stored in dir, creating the directory and an
// empty index with the fixed schema when none exists yet.
func OpenOrCreate(ctx context.Context, dir string, opts ...Option) (*Index, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "open index", "", "index directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, "open index", dir, err)
	}

	dbPath := filepath.Join(dir, Name+".db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	idx := &Index{
		db:     db,
		dir:    dir,
		path:   dbPath,
		logger: slog.New(slog.DiscardHandler),
		lock:   flock.New(filepath.Join(dir, Name+".lock")),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if err := idx.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

// Path returns the database file backing the index.
func (i *Index) Path() string {
	return i.path
}

// Close releases the database handle.
func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

// IndexDocuments adds one document per cue for objectID. The batch commits
// atomically: when any cue is rejected nothing from the batch is visible.
func (i *Index) IndexDocuments(ctx context.Context, objectID string, cues []Cue) (int, error) {
	if len(cues) == 0 {
		return 0, nil
	}

	count := 0
	err := i.write(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO documents (object_id, "start", "end", content, sequence_index) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		ftsStmt, err := tx.PrepareContext(ctx, `INSERT INTO documents_fts (rowid, content) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare fts insert: %w", err)
		}
		defer ftsStmt.Close()

		for n, cue := range cues {
			if err := validateCue(objectID, cue); err != nil {
				return fmt.Errorf("cue %d: %w", n, err)
			}
			res, err := stmt.ExecContext(ctx, objectID,
				formatTimestamp(cue.Start), formatTimestamp(cue.End), cue.Content, cue.SequenceIndex)
			if err != nil {
				return fmt.Errorf("cue %d: insert document: %w", n, err)
			}
			rowID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("cue %d: document id: %w", n, err)
			}
			if _, err := ftsStmt.ExecContext(ctx, rowID, cue.Content); err != nil {
				return fmt.Errorf("cue %d: index content: %w", n, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.KindIndexCommit, "index documents", objectID, err)
	}
	i.logger.Debug("indexed subtitle documents", slog.String("object_id", objectID), slog.Int("documents", count))
	return count, nil
}

// DeleteObject removes every document belonging to objectID in one
// transaction and returns how many were removed.
func (i *Index) DeleteObject(ctx context.Context, objectID string) (int, error) {
	removed := 0
	err := i.write(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, content FROM documents WHERE object_id = ?`, objectID)
		if err != nil {
			return fmt.Errorf("select documents: %w", err)
		}
		type doc struct {
			id      int64
			content string
		}
		var docs []doc
		for rows.Next() {
			var d doc
			if err := rows.Scan(&d.id, &d.content); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan document: %w", err)
			}
			docs = append(docs, d)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, d := range docs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO documents_fts (documents_fts, rowid, content) VALUES ('delete', ?, ?)`, d.id, d.content); err != nil {
				return fmt.Errorf("unindex document %d: %w", d.id, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE object_id = ?`, objectID); err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		removed = len(docs)
		return nil
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.KindIndexCommit, "delete documents", objectID, err)
	}
	return removed, nil
}

// Reset removes every document, leaving an empty index.
func (i *Index) Reset(ctx context.Context) error {
	err := i.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO documents_fts (documents_fts) VALUES ('delete-all')`); err != nil {
			return fmt.Errorf("clear full-text index: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindIndexCommit, "reset index", i.path, err)
	}
	return nil
}

// Count returns the number of committed documents.
func (i *Index) Count(ctx context.Context) (int, error) {
	var count int
	if err := i.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// CountObject returns the number of committed documents for objectID.
func (i *Index) CountObject(ctx context.Context, objectID string) (int, error) {
	var count int
	if err := i.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents WHERE object_id = ?`, objectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// write runs fn inside a transaction while holding the single-writer locks.
func (i *Index) write(ctx context.Context, fn func(*sql.Tx) error) error {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	locked, err := i.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire index writer lock: %w", err)
	}
	if !locked {
		return errors.New("index writer lock is held by another process")
	}
	defer func() {
		if err := i.lock.Unlock(); err != nil {
			i.logger.Warn("release index writer lock failed", slog.String("error", err.Error()))
		}
	}()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			i.logger.Warn("index rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func validateCue(objectID string, cue Cue) error {
	if !validObjectID(objectID) {
		return fmt.Errorf("malformed object id %q", objectID)
	}
	if cue.Start < 0 {
		return fmt.Errorf("negative start %s", cue.Start)
	}
	if cue.End < cue.Start {
		return fmt.Errorf("end %s precedes start %s", cue.End, cue.Start)
	}
	if cue.SequenceIndex < 0 {
		return fmt.Errorf("negative sequence index %d", cue.SequenceIndex)
	}
	return nil
}

func validObjectID(id string) bool {
	if len(id) != 40 {
		return false
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// formatTimestamp renders the canonical HH:MM:SS,mmm form stored in the
// start and end fields.
func formatTimestamp(d time.Duration) string {
	ms := int64(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, (ms/60000)%60, (ms/1000)%60, ms%1000)
}
