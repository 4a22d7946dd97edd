// Package model defines the core media library data types.
package model

import (
	"path/filepath"
	"time"
)

// DateLayout is the wall-clock layout used for stored creation dates.
// Fixed width, so stored values sort and compare lexically.
const DateLayout = "2006-01-02 15:04:05"

// MediaItem represents an attachment record: one primary file plus its variants.
type MediaItem struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title,omitempty"`
	MimeType  string          `json:"mime_type,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	File      string          `json:"file"` // relative to the upload base, or absolute for legacy rows
	Meta      *AttachmentMeta `json:"meta,omitempty"`
}

// AttachmentMeta is the size/variant metadata block stored with an attachment.
type AttachmentMeta struct {
	File   string             `json:"file,omitempty"`
	Width  int                `json:"width,omitempty"`
	Height int                `json:"height,omitempty"`
	Sizes  map[string]Variant `json:"sizes,omitempty"`
}

// Variant is a derived rendition. File is a bare file name that lives next to the primary file.
type Variant struct {
	File     string `json:"file"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// PrimaryPath resolves the item's primary file against the upload base.
func (m MediaItem) PrimaryPath(base string) string {
	if filepath.IsAbs(m.File) {
		return filepath.Clean(m.File)
	}
	return filepath.Join(base, filepath.FromSlash(m.File))
}

// VariantPaths returns variant name -> absolute path, co-located with the primary file.
func (m MediaItem) VariantPaths(base string) map[string]string {
	if m.Meta == nil || len(m.Meta.Sizes) == 0 {
		return nil
	}
	dir := filepath.Dir(m.PrimaryPath(base))
	out := make(map[string]string, len(m.Meta.Sizes))
	for name, v := range m.Meta.Sizes {
		out[name] = filepath.Join(dir, v.File)
	}
	return out
}

// BatchFilter selects a page of attachments by creation date. Both bounds are inclusive.
type BatchFilter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

// ContentRow is a free-text content record that may embed media URLs.
type ContentRow struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

// ContentMeta is a key/value field attached to a content row.
type ContentMeta struct {
	ID        int64  `json:"id"`
	ContentID int64  `json:"content_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}
