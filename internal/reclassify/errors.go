package reclassify

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is returned for malformed filters, offsets or batch sizes.
// It is the only per-call error a caller should expect besides store outages.
var ErrInvalidFilter = errors.New("invalid filter")

// Kind classifies a per-item failure.
type Kind string

const (
	KindNotFound               Kind = "not_found" // item vanished between fetch and process
	KindStoreReadFailed        Kind = "store_read_failed"
	KindSourceMissing          Kind = "source_missing" // primary file absent on disk
	KindAlreadyCorrect         Kind = "already_correct"
	KindDirectoryCreateFailed  Kind = "directory_create_failed"
	KindMoveFailed             Kind = "move_failed"
	KindMetadataUpdateFailed   Kind = "metadata_update_failed" // phase 1 done, phase 2 failed
	KindVariantMoveFailed      Kind = "variant_move_failed"    // non-fatal
	KindReferenceRewriteFailed Kind = "reference_rewrite_failed"
)

// ItemError is a data-dependent failure for one attachment.
type ItemError struct {
	Kind   Kind
	ID     int64
	Reason string
	Err    error
}

func (e *ItemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("attachment %d: %s: %v", e.ID, e.Reason, e.Err)
	}
	return fmt.Sprintf("attachment %d: %s", e.ID, e.Reason)
}

func (e *ItemError) Unwrap() error { return e.Err }

func (e *ItemError) failure(oldPath, newPath string) *Failure {
	return &Failure{
		ID:      e.ID,
		Kind:    e.Kind,
		Reason:  e.Reason,
		OldPath: oldPath,
		NewPath: newPath,
		Err:     e,
	}
}
