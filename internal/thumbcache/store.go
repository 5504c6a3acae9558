// Package thumbcache persists rendered scene thumbnails in SQLite so that a
// reopened project shows its storyboard before the renderer catches up.
package thumbcache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no thumbnail is stored for a scene.
var ErrNotFound = errors.New("thumbnail not cached")

const schema = `
CREATE TABLE IF NOT EXISTS thumbnails (
	scene_id   TEXT PRIMARY KEY,
	frame      INTEGER NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	png        BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Entry is a cached thumbnail.
type Entry struct {
	SceneID   uuid.UUID
	Frame     int
	Image     image.Image
	UpdatedAt time.Time
}

// Store is a thumbnail cache. A Store opened with an empty path keeps
// nothing; every lookup misses.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the cache database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return &Store{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open thumbnail cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create thumbnails table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file, or "" for a no-op store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores img as the thumbnail of scene id rendered at frame, replacing
// any previous one.
func (s *Store) Put(ctx context.Context, id uuid.UUID, frame int, img image.Image) error {
	if s == nil || s.db == nil || img == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	b := img.Bounds()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thumbnails (scene_id, frame, width, height, png, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scene_id) DO UPDATE SET
			frame = excluded.frame,
			width = excluded.width,
			height = excluded.height,
			png = excluded.png,
			updated_at = excluded.updated_at`,
		id.String(), frame, b.Dx(), b.Dy(), buf.Bytes(), now)
	if err != nil {
		return fmt.Errorf("store thumbnail %s: %w", id, err)
	}
	return nil
}

// Get returns the cached thumbnail of scene id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	if s == nil || s.db == nil {
		return Entry{}, ErrNotFound
	}
	var (
		frame   int
		data    []byte
		updated string
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT frame, png, updated_at FROM thumbnails WHERE scene_id = ?", id.String())
	if err := row.Scan(&frame, &data, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("load thumbnail %s: %w", id, err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return Entry{}, fmt.Errorf("decode thumbnail %s: %w", id, err)
	}
	entry := Entry{SceneID: id, Frame: frame, Image: img}
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		entry.UpdatedAt = ts
	}
	return entry, nil
}

// Delete removes the thumbnail of scene id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM thumbnails WHERE scene_id = ?", id.String()); err != nil {
		return fmt.Errorf("delete thumbnail %s: %w", id, err)
	}
	return nil
}

// Prune removes every thumbnail whose scene is not in keep and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context, keep []uuid.UUID) (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, "SELECT scene_id FROM thumbnails")
	if err != nil {
		return 0, fmt.Errorf("list thumbnails: %w", err)
	}
	live := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		live[id.String()] = struct{}{}
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan thumbnail id: %w", err)
		}
		if _, ok := live[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("list thumbnails: %w", err)
	}
	rows.Close()

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM thumbnails WHERE scene_id = ?", id); err != nil {
			return 0, fmt.Errorf("prune thumbnail %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return len(stale), nil
}

// Count returns the number of cached thumbnails.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM thumbnails").Scan(&n); err != nil {
		return 0, fmt.Errorf("count thumbnails: %w", err)
	}
	return n, nil
}
