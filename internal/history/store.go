package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gramline/internal/config"
)

// Post is one ledger row describing a published post.
type Post struct {
	ID       int64
	Month    int
	Image    string
	Caption  string
	MediaID  string
	RunID    string
	PostedAt time.Time
}

// Store manages post history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "history.db"))
}

// OpenPath opens the ledger at an explicit path (used in tests).
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordPost appends one published post to the ledger.
func (s *Store) RecordPost(ctx context.Context, post Post) (int64, error) {
	postedAt := post.PostedAt
	if postedAt.IsZero() {
		postedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO posts (month, image, caption, media_id, run_id, posted_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		post.Month,
		post.Image,
		post.Caption,
		nullableString(post.MediaID),
		nullableString(post.RunID),
		postedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// CountForMonth reports how many posts the ledger holds for a month.
func (s *Store) CountForMonth(ctx context.Context, month int) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM posts WHERE month = ?", month)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count posts for month %d: %w", month, err)
	}
	return count, nil
}

// LastPostForMonth returns the most recent post for a month, or nil when the
// month has never been posted.
func (s *Store) LastPostForMonth(ctx context.Context, month int) (*Post, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, month, image, caption, media_id, run_id, posted_at
         FROM posts WHERE month = ? ORDER BY posted_at DESC, id DESC LIMIT 1`,
		month,
	)
	return scanPost(row)
}

// LastPost returns the most recent post overall, or nil for an empty ledger.
func (s *Store) LastPost(ctx context.Context) (*Post, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, month, image, caption, media_id, run_id, posted_at
         FROM posts ORDER BY posted_at DESC, id DESC LIMIT 1`,
	)
	return scanPost(row)
}

// RecentPosts returns up to limit posts, newest first.
func (s *Store) RecentPosts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, month, image, caption, media_id, run_id, posted_at
         FROM posts ORDER BY posted_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent posts: %w", err)
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row *sql.Row) (*Post, error) {
	post, err := scanPostRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func scanPostRow(scanner rowScanner) (Post, error) {
	var (
		post     Post
		mediaID  sql.NullString
		runID    sql.NullString
		postedAt string
	)
	if err := scanner.Scan(&post.ID, &post.Month, &post.Image, &post.Caption, &mediaID, &runID, &postedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, sql.ErrNoRows
		}
		return Post{}, fmt.Errorf("scan post: %w", err)
	}
	post.MediaID = mediaID.String
	post.RunID = runID.String
	if ts, err := time.Parse(time.RFC3339Nano, postedAt); err == nil {
		post.PostedAt = ts
	}
	return post, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
