package store

import (
	"context"
	"fmt"

	"github.com/rcliao/media-reclassify/internal/model"
)

// Manifest is a portable dump of the attachment store.
type Manifest struct {
	Attachments []model.MediaItem   `json:"attachments"`
	Contents    []model.ContentRow  `json:"contents,omitempty"`
	ContentMeta []model.ContentMeta `json:"content_meta,omitempty"`
}

// ExportAll returns every attachment, content row and meta value, ordered by id.
func (s *SQLiteStore) ExportAll(ctx context.Context) (*Manifest, error) {
	m := &Manifest{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, mime_type, created_at, file, metadata FROM attachments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		m.Attachments = append(m.Attachments, a)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT id, title, body FROM contents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c model.ContentRow
		if err := rows.Scan(&c.ID, &c.Title, &c.Body); err != nil {
			rows.Close()
			return nil, err
		}
		m.Contents = append(m.Contents, c)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, content_id, meta_key, meta_value FROM content_meta ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cm model.ContentMeta
		if err := rows.Scan(&cm.ID, &cm.ContentID, &cm.Key, &cm.Value); err != nil {
			return nil, err
		}
		m.ContentMeta = append(m.ContentMeta, cm)
	}
	return m, rows.Err()
}

// ImportStats counts rows written by Import.
type ImportStats struct {
	Attachments int `json:"attachments"`
	Contents    int `json:"contents"`
	ContentMeta int `json:"content_meta"`
}

// Import stores a manifest. Ids are reassigned; meta rows follow their content row.
func (s *SQLiteStore) Import(ctx context.Context, m *Manifest) (ImportStats, error) {
	var st ImportStats
	for _, a := range m.Attachments {
		_, err := s.PutAttachment(ctx, PutAttachmentParams{
			Title:     a.Title,
			MimeType:  a.MimeType,
			CreatedAt: a.CreatedAt,
			File:      a.File,
			Meta:      a.Meta,
		})
		if err != nil {
			return st, err
		}
		st.Attachments++
	}

	contentIDs := make(map[int64]int64, len(m.Contents))
	for _, c := range m.Contents {
		row, err := s.PutContent(ctx, c.Title, c.Body)
		if err != nil {
			return st, err
		}
		contentIDs[c.ID] = row.ID
		st.Contents++
	}

	for _, cm := range m.ContentMeta {
		id, ok := contentIDs[cm.ContentID]
		if !ok {
			return st, fmt.Errorf("content meta %d: unknown content %d", cm.ID, cm.ContentID)
		}
		if _, err := s.PutContentMeta(ctx, id, cm.Key, cm.Value); err != nil {
			return st, err
		}
		st.ContentMeta++
	}
	return st, nil
}
