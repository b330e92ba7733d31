// Package sqlitestore is the SQLite comments backend.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/comments"
	"github.com/starford/folio/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS comments (
	id           TEXT PRIMARY KEY,
	post_slug    TEXT NOT NULL,
	author_name  TEXT NOT NULL,
	author_email TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	is_approved  INTEGER NOT NULL DEFAULT 0,
	is_deleted   INTEGER NOT NULL DEFAULT 0,
	reply_to     TEXT NOT NULL DEFAULT '',
	likes_count  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_slug, is_approved, is_deleted);

CREATE TABLE IF NOT EXISTS comment_likes (
	comment_id TEXT NOT NULL REFERENCES comments(id),
	requester  TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (comment_id, requester)
);

CREATE TABLE IF NOT EXISTS comment_reports (
	id         TEXT PRIMARY KEY,
	comment_id TEXT NOT NULL REFERENCES comments(id),
	requester  TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	UNIQUE(comment_id, requester)
);
`

const selectColumns = `id, post_slug, author_name, author_email, content, created_at,
	is_approved, is_deleted, reply_to, likes_count`

// DB is a comments.Backend over SQLite.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

var _ comments.Backend = (*DB)(nil)

// Open opens (or creates) the database file and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}
	return &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) ListApproved(ctx context.Context, postSlug string) ([]models.Comment, error) {
	return db.list(ctx, `SELECT `+selectColumns+` FROM comments
		WHERE post_slug = ? AND is_approved = 1 AND is_deleted = 0
		ORDER BY created_at, rowid`, postSlug)
}

func (db *DB) ListPending(ctx context.Context) ([]models.Comment, error) {
	return db.list(ctx, `SELECT `+selectColumns+` FROM comments
		WHERE is_approved = 0 AND is_deleted = 0
		ORDER BY created_at, rowid`)
}

func (db *DB) list(ctx context.Context, query string, args ...any) ([]models.Comment, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list: %w", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (db *DB) Get(ctx context.Context, id string) (*models.Comment, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comment %s: %w", id, apperr.ErrNotFound)
	}
	return c, err
}

func (db *DB) Insert(ctx context.Context, in comments.NewComment) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO comments (id, post_slug, author_name, author_email, content, created_at, is_approved, reply_to)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`, id, in.PostSlug, in.AuthorName, in.AuthorEmail, in.Content, db.now(), in.ReplyTo)
	if err != nil {
		return "", fmt.Errorf("sqlitestore: insert: %w", err)
	}
	return id, nil
}

func (db *DB) Approve(ctx context.Context, id string) error {
	return db.update(ctx, `UPDATE comments SET is_approved = 1 WHERE id = ? AND is_deleted = 0`, id)
}

func (db *DB) SoftDelete(ctx context.Context, id string) error {
	return db.update(ctx, `UPDATE comments SET is_deleted = 1 WHERE id = ?`, id)
}

func (db *DB) update(ctx context.Context, query, id string) error {
	res, err := db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("sqlitestore: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("comment %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (db *DB) ToggleLike(ctx context.Context, id, requester string) (bool, int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("sqlitestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := exists(ctx, tx, id); err != nil {
		return false, 0, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = ? AND requester = ?`, id, requester)
	if err != nil {
		return false, 0, fmt.Errorf("sqlitestore: unlike: %w", err)
	}
	liked := false
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO comment_likes (comment_id, requester, created_at) VALUES (?, ?, ?)`,
			id, requester, db.now()); err != nil {
			return false, 0, fmt.Errorf("sqlitestore: like: %w", err)
		}
		liked = true
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE comments SET likes_count = (SELECT count(*) FROM comment_likes WHERE comment_id = ?)
		WHERE id = ?`, id, id); err != nil {
		return false, 0, fmt.Errorf("sqlitestore: count likes: %w", err)
	}
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT likes_count FROM comments WHERE id = ?`, id).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("sqlitestore: read likes: %w", err)
	}
	return liked, count, tx.Commit()
}

func (db *DB) Report(ctx context.Context, id, requester, reason string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := exists(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO comment_reports (id, comment_id, requester, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`, uuid.NewString(), id, requester, reason, db.now()); err != nil {
		return fmt.Errorf("sqlitestore: report: %w", err)
	}
	return tx.Commit()
}

// ReportCount returns how many distinct requesters reported a comment.
func (db *DB) ReportCount(ctx context.Context, id string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM comment_reports WHERE comment_id = ?`, id).Scan(&n)
	return n, err
}

func exists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM comments WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("comment %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sqlitestore: lookup: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*models.Comment, error) {
	var c models.Comment
	if err := s.Scan(&c.ID, &c.PostSlug, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.CreatedAt,
		&c.IsApproved, &c.IsDeleted, &c.ReplyTo, &c.LikesCount); err != nil {
		return nil, err
	}
	c.SystemType = models.SystemSQLite
	return &c, nil
}
