package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"enchant/internal/apperr"
)

// FileName is the catalog database name inside the repository directory.
const FileName = "enchant.db"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Movie is one catalogued video and subtitle pair.
type Movie struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	VideoObjectID    string    `json:"video_object_id"`
	SubtitleObjectID string    `json:"subtitle_object_id"`
	SubtitleFormat   string    `json:"subtitle_format"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store manages movie persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "open catalog", "", "database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, "open catalog", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts movie and fills in its ID and CreatedAt. A second movie
// referencing an already catalogued object id fails with KindDuplicate.
func (s *Store) Create(ctx context.Context, movie *Movie) error {
	if movie == nil {
		return apperr.New(apperr.KindInvalidInput, "create movie", "", "movie required")
	}
	if strings.TrimSpace(movie.VideoObjectID) == "" || strings.TrimSpace(movie.SubtitleObjectID) == "" {
		return apperr.New(apperr.KindInvalidInput, "create movie", movie.Name, "video and subtitle object ids required")
	}
	if movie.CreatedAt.IsZero() {
		movie.CreatedAt = time.Now().UTC()
	}

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO movies (name, video_object_id, subtitle_object_id, subtitle_format, created_at)
             VALUES (?, ?, ?, ?, ?)`,
			movie.Name, movie.VideoObjectID, movie.SubtitleObjectID, movie.SubtitleFormat,
			movie.CreatedAt.Format(time.RFC3339Nano))
		return execErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.KindDuplicate, "create movie", movie.Name, err)
		}
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("movie id: %w", err)
	}
	movie.ID = id
	return nil
}

// GetByID returns the movie with id, or nil when none exists.
func (s *Store) GetByID(ctx context.Context, id int64) (*Movie, error) {
	return s.findOne(ctx, "id = ?", id)
}

// FindByVideoObjectID returns the movie whose video is objectID, or nil.
func (s *Store) FindByVideoObjectID(ctx context.Context, objectID string) (*Movie, error) {
	return s.findOne(ctx, "video_object_id = ?", objectID)
}

// FindBySubtitleObjectID returns the movie whose subtitle is objectID, or nil.
func (s *Store) FindBySubtitleObjectID(ctx context.Context, objectID string) (*Movie, error) {
	return s.findOne(ctx, "subtitle_object_id = ?", objectID)
}

// List returns every movie ordered by id.
func (s *Store) List(ctx context.Context) ([]*Movie, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var movies []*Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// Count returns the number of catalogued movies.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM movies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

const selectColumns = `SELECT id, name, video_object_id, subtitle_object_id, subtitle_format, created_at FROM movies`

func (s *Store) findOne(ctx context.Context, where string, arg any) (*Movie, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE "+where, arg)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return movie, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(row scanner) (*Movie, error) {
	var (
		movie   Movie
		created string
	)
	if err := row.Scan(&movie.ID, &movie.Name, &movie.VideoObjectID, &movie.SubtitleObjectID, &movie.SubtitleFormat, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		movie.CreatedAt = ts
	}
	return &movie, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
