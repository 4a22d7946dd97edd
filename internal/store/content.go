package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/media-reclassify/internal/model"
)

// Reference is a content body or meta value that embeds a URL.
type Reference struct {
	Table     string `json:"table"` // contents | content_meta
	RowID     int64  `json:"row_id"`
	ContentID int64  `json:"content_id"`
	Key       string `json:"key,omitempty"`
	Excerpt   string `json:"excerpt"`
}

// PutContent stores a free-text content row.
func (s *SQLiteStore) PutContent(ctx context.Context, title, body string) (*model.ContentRow, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO contents (title, body) VALUES (?, ?)`, title, body)
	if err != nil {
		return nil, fmt.Errorf("insert content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.ContentRow{ID: id, Title: title, Body: body}, nil
}

// PutContentMeta stores a key/value field on a content row.
func (s *SQLiteStore) PutContentMeta(ctx context.Context, contentID int64, key, value string) (*model.ContentMeta, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO content_meta (content_id, meta_key, meta_value) VALUES (?, ?, ?)`, contentID, key, value)
	if err != nil {
		return nil, fmt.Errorf("insert content meta: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.ContentMeta{ID: id, ContentID: contentID, Key: key, Value: value}, nil
}

// GetContent returns a content row by id.
func (s *SQLiteStore) GetContent(ctx context.Context, id int64) (*model.ContentRow, error) {
	var c model.ContentRow
	err := s.db.QueryRowContext(ctx, `SELECT id, title, body FROM contents WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("content %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", id, err)
	}
	return &c, nil
}

// ReplaceInContent rewrites every occurrence of oldURL across all content bodies and meta
// values. Matching is an exact substring test (instr), never LIKE, so '%' and '_' in URLs
// are literal. The rewrite is not scoped to any one attachment: unrelated text containing
// the same literal URL is rewritten too.
func (s *SQLiteStore) ReplaceInContent(ctx context.Context, oldURL, newURL string) (int64, error) {
	if oldURL == "" {
		return 0, fmt.Errorf("replace in content: empty search string")
	}
	if oldURL == newURL {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for _, q := range []string{
		`UPDATE contents SET body = replace(body, ?, ?) WHERE instr(body, ?) > 0`,
		`UPDATE content_meta SET meta_value = replace(meta_value, ?, ?) WHERE instr(meta_value, ?) > 0`,
	} {
		res, err := tx.ExecContext(ctx, q, oldURL, newURL, oldURL)
		if err != nil {
			return 0, fmt.Errorf("replace in content: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("replace in content: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// FindReferences lists content rows and meta values containing url.
func (s *SQLiteStore) FindReferences(ctx context.Context, url string, limit int) ([]Reference, error) {
	if url == "" {
		return nil, fmt.Errorf("find references: empty url")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT 'contents', id, id, '', body FROM contents WHERE instr(body, ?) > 0
		UNION ALL
		SELECT 'content_meta', id, content_id, meta_key, meta_value FROM content_meta WHERE instr(meta_value, ?) > 0
		ORDER BY 1, 2
		LIMIT ?`, url, url, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		var r Reference
		var text string
		if err := rows.Scan(&r.Table, &r.RowID, &r.ContentID, &r.Key, &text); err != nil {
			return nil, err
		}
		r.Excerpt = excerpt(text, url, 40)
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// excerpt returns about pad bytes of context on each side of the first match,
// widened to rune boundaries.
func excerpt(text, match string, pad int) string {
	i := strings.Index(text, match)
	if i < 0 {
		return ""
	}
	start := i - pad
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := i + len(match) + pad
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	out := text[start:end]
	if start > 0 {
		out = "…" + out
	}
	if end < len(text) {
		out += "…"
	}
	return out
}
