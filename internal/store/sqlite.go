package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/media-reclassify/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attachments (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL DEFAULT '',
		mime_type   TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		file        TEXT NOT NULL,
		metadata    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_attachments_created ON attachments(created_at);

	CREATE TABLE IF NOT EXISTS contents (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL DEFAULT '',
		body        TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS content_meta (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		content_id  INTEGER NOT NULL REFERENCES contents(id),
		meta_key    TEXT NOT NULL,
		meta_value  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_content_meta_content ON content_meta(content_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// dateWhere builds the date-range clause shared by Count and FetchPage.
func dateWhere(f model.BatchFilter) (string, []interface{}) {
	var where []string
	var args []interface{}
	if f.DateFrom != nil {
		where = append(where, "created_at >= ?")
		args = append(args, f.DateFrom.Format(model.DateLayout))
	}
	if f.DateTo != nil {
		where = append(where, "created_at <= ?")
		args = append(args, f.DateTo.Format(model.DateLayout))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *SQLiteStore) Count(ctx context.Context, f model.BatchFilter) (int, error) {
	where, args := dateWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attachments`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attachments: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) FetchPage(ctx context.Context, f model.BatchFilter) ([]model.MediaItem, error) {
	where, args := dateWhere(f)
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, mime_type, created_at, file, metadata FROM attachments`+where+
			` ORDER BY id ASC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch attachments: %w", err)
	}
	defer rows.Close()

	var items []model.MediaItem
	for rows.Next() {
		m, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.MediaItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, mime_type, created_at, file, metadata FROM attachments WHERE id = ?`, id)
	m, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStore) SetPrimaryPath(ctx context.Context, id int64, relPath string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE attachments SET file = ? WHERE id = ?`, relPath, id)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) SetVariantMetadata(ctx context.Context, id int64, meta model.AttachmentMeta) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE attachments SET metadata = ? WHERE id = ?`, string(b), id)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return requireAffected(res, id)
}

// PutAttachment registers a new attachment and returns it with its assigned id.
func (s *SQLiteStore) PutAttachment(ctx context.Context, p PutAttachmentParams) (*model.MediaItem, error) {
	if p.File == "" {
		return nil, fmt.Errorf("file is required")
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.Truncate(time.Second)

	var metaPtr *string
	if p.Meta != nil {
		b, err := json.Marshal(p.Meta)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		ms := string(b)
		metaPtr = &ms
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (title, mime_type, created_at, file, metadata) VALUES (?, ?, ?, ?, ?)`,
		p.Title, p.MimeType, created.Format(model.DateLayout), p.File, metaPtr)
	if err != nil {
		return nil, fmt.Errorf("insert attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &model.MediaItem{
		ID:        id,
		Title:     p.Title,
		MimeType:  p.MimeType,
		CreatedAt: created,
		File:      p.File,
		Meta:      p.Meta,
	}, nil
}

// HasFile reports whether an attachment already records the given relative path.
func (s *SQLiteStore) HasFile(ctx context.Context, relPath string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attachments WHERE file = ?`, relPath).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("attachment %d: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAttachment(row scanner) (model.MediaItem, error) {
	var m model.MediaItem
	var createdAt string
	var meta sql.NullString

	err := row.Scan(&m.ID, &m.Title, &m.MimeType, &createdAt, &m.File, &meta)
	if err != nil {
		return m, err
	}

	m.CreatedAt, err = time.ParseInLocation(model.DateLayout, createdAt, time.Local)
	if err != nil {
		return m, fmt.Errorf("attachment %d: bad created_at %q: %w", m.ID, createdAt, err)
	}
	if meta.Valid && meta.String != "" {
		var am model.AttachmentMeta
		if err := json.Unmarshal([]byte(meta.String), &am); err != nil {
			return m, fmt.Errorf("attachment %d: bad metadata: %w", m.ID, err)
		}
		m.Meta = &am
	}

	return m, nil
}
