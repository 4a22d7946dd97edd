// Package store provides the attachment store interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/media-reclassify/internal/model"
)

// ErrNotFound is returned when an attachment or content row does not exist.
var ErrNotFound = errors.New("not found")

// PutAttachmentParams holds parameters for registering an attachment.
type PutAttachmentParams struct {
	Title     string
	MimeType  string
	CreatedAt time.Time
	File      string // relative to the upload base
	Meta      *model.AttachmentMeta
}

// Store defines the attachment store interface used by the reclassifier.
type Store interface {
	// Count returns the number of attachments matching the filter's date bounds.
	Count(ctx context.Context, f model.BatchFilter) (int, error)

	// FetchPage returns up to f.Limit attachments ordered by id, starting at f.Offset.
	FetchPage(ctx context.Context, f model.BatchFilter) ([]model.MediaItem, error)

	// Get returns a single attachment. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id int64) (*model.MediaItem, error)

	// SetPrimaryPath records the attachment's file path relative to the upload base.
	SetPrimaryPath(ctx context.Context, id int64, relPath string) error

	// SetVariantMetadata replaces the attachment's size/variant metadata block.
	SetVariantMetadata(ctx context.Context, id int64, meta model.AttachmentMeta) error

	// ReplaceInContent replaces oldURL with newURL in every content body and meta value
	// containing it. Returns the number of rows changed.
	ReplaceInContent(ctx context.Context, oldURL, newURL string) (int64, error)

	// Close closes the store.
	Close() error
}
