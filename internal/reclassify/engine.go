// Package reclassify moves attachments into <base>/<year>/<month>/ folders
// derived from their creation date and rewrites every reference to them.
//
// Each item goes through Plan -> Move -> Rewrite. Moving and persisting are
// not transactional: phase 1 renames files, phase 2 writes the store. When
// phase 2 fails the outcome is a Failure of KindMetadataUpdateFailed carrying
// both paths, so callers can detect and repair the gap.
package reclassify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/rcliao/media-reclassify/internal/model"
	"github.com/rcliao/media-reclassify/internal/mover"
	"github.com/rcliao/media-reclassify/internal/planner"
	"github.com/rcliao/media-reclassify/internal/runlog"
	"github.com/rcliao/media-reclassify/internal/store"
)

const (
	DefaultBatchSize = 50
	MaxBatchSize     = 500
)

const skipReason = "already in correct folder structure"

// Store is the subset of the attachment store the engine needs.
type Store interface {
	Count(ctx context.Context, f model.BatchFilter) (int, error)
	FetchPage(ctx context.Context, f model.BatchFilter) ([]model.MediaItem, error)
	Get(ctx context.Context, id int64) (*model.MediaItem, error)
	SetPrimaryPath(ctx context.Context, id int64, relPath string) error
	SetVariantMetadata(ctx context.Context, id int64, meta model.AttachmentMeta) error
	ReplaceInContent(ctx context.Context, oldURL, newURL string) (int64, error)
}

// Config locates the upload tree.
type Config struct {
	UploadDir string // absolute filesystem base of the upload tree
	BaseURL   string // public URL prefix that maps to UploadDir
}

// Options controls one ProcessBatch call.
type Options struct {
	DryRun bool
}

// BatchResult aggregates one ProcessBatch call.
type BatchResult struct {
	Offset     int       `json:"offset"`
	NextOffset int       `json:"next_offset"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Total      int       `json:"total"`
	Success    int       `json:"success"`
	Error      int       `json:"error"`
	Skipped    int       `json:"skipped"`
	Outcomes   []Outcome `json:"details"`
}

func (r *BatchResult) add(o Outcome) {
	r.Total++
	switch o.Status() {
	case StatusSuccess:
		r.Success++
	case StatusSkipped:
		r.Skipped++
	case StatusError:
		r.Error++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Engine drives batched reclassification. Calls must not overlap.
type Engine struct {
	store    Store
	cfg      Config
	mover    *mover.Mover
	rewriter *Rewriter
	ledger   *Ledger
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLedger shares a caller-owned ledger.
func WithLedger(l *Ledger) Option { return func(e *Engine) { e.ledger = l } }

// WithLogger sends per-item log entries to l. Without it nothing is logged.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics records outcome counters.
func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithMover replaces the filesystem mover.
func WithMover(m *mover.Mover) Option { return func(e *Engine) { e.mover = m } }

// New returns an Engine over st.
func New(st Store, cfg Config, opts ...Option) (*Engine, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	base, err := filepath.Abs(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	cfg.UploadDir = base

	e := &Engine{
		store:  st,
		cfg:    cfg,
		mover:  mover.New(),
		ledger: NewLedger(),
		logger: runlog.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rewriter = NewRewriter(st, cfg.UploadDir, cfg.BaseURL)
	return e, nil
}

// Log returns everything recorded in the engine's ledger.
func (e *Engine) Log() LogSnapshot { return e.ledger.Snapshot() }

// ClearLog empties the engine's ledger.
func (e *Engine) ClearLog() { e.ledger.Clear() }

// Count returns the number of attachments matching f's date bounds.
func (e *Engine) Count(ctx context.Context, f model.BatchFilter) (int, error) {
	if err := validateDates(f); err != nil {
		return 0, err
	}
	return e.store.Count(ctx, f)
}

// ProcessBatch fetches up to f.Limit items (ordered by id) from f.Offset and
// runs each through the pipeline. Per-item failures become Failure outcomes;
// only invalid filters and fetch errors are returned as errors.
func (e *Engine) ProcessBatch(ctx context.Context, f model.BatchFilter, opts Options) (*BatchResult, error) {
	if f.Limit == 0 {
		f.Limit = DefaultBatchSize
	}
	if err := validate(f); err != nil {
		return nil, err
	}

	start := time.Now()
	items, err := e.store.FetchPage(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	res := &BatchResult{Offset: f.Offset, DryRun: opts.DryRun, Outcomes: make([]Outcome, 0, len(items))}
	reserved := planner.NewReservations()
	for _, it := range items {
		o := e.processItem(ctx, it.ID, opts.DryRun, reserved)
		res.add(o)
		e.ledger.Record(o)
		e.metrics.observe(o, opts.DryRun)
	}
	res.NextOffset = f.Offset + res.Total
	e.metrics.observeBatch(time.Since(start).Seconds())
	return res, nil
}

func (e *Engine) processItem(ctx context.Context, id int64, dryRun bool, reserved *planner.Reservations) Outcome {
	log := e.logger.With("attachment_id", id)

	item, err := e.store.Get(ctx, id)
	if err != nil {
		ie := &ItemError{Kind: KindStoreReadFailed, ID: id, Reason: "failed to load attachment", Err: err}
		if errors.Is(err, store.ErrNotFound) {
			ie = &ItemError{Kind: KindNotFound, ID: id, Reason: "attachment not found"}
		}
		log.ErrorContext(ctx, ie.Reason, "kind", ie.Kind, "error", err)
		return ie.failure("", "")
	}

	oldPath := item.PrimaryPath(e.cfg.UploadDir)
	plan := planner.Compute(e.cfg.UploadDir, oldPath, item.CreatedAt)
	if plan.AlreadyCorrect {
		log.InfoContext(ctx, "File already in correct folder structure", "file_path", oldPath)
		return &Skipped{ID: id, Kind: KindAlreadyCorrect, Path: oldPath, Reason: skipReason}
	}

	onDisk := planner.OnDisk
	if dryRun {
		onDisk = reserved.Exists
	}
	if !onDisk(oldPath) {
		ie := &ItemError{Kind: KindSourceMissing, ID: id, Reason: "file does not exist: " + oldPath}
		log.ErrorContext(ctx, "File does not exist", "kind", ie.Kind, "file_path", oldPath)
		return ie.failure(oldPath, "")
	}

	if dryRun {
		return e.dryRun(item, oldPath, plan, reserved)
	}

	// Phase 1: filesystem.
	newPath, err := e.mover.MovePrimary(oldPath, plan.TargetDir, plan.Target)
	if err != nil {
		ie := &ItemError{Kind: KindMoveFailed, ID: id, Reason: "failed to move file", Err: err}
		if errors.Is(err, mover.ErrCreateDir) {
			ie = &ItemError{Kind: KindDirectoryCreateFailed, ID: id, Reason: "failed to create directory: " + plan.TargetDir, Err: err}
			log.ErrorContext(ctx, "Failed to create directory", "kind", ie.Kind, "directory", plan.TargetDir, "error", err)
		} else {
			log.ErrorContext(ctx, "Failed to move file", "kind", ie.Kind, "old_path", oldPath, "new_path", plan.Target, "error", err)
		}
		return ie.failure(oldPath, "")
	}

	variants := e.mover.MoveVariants(item.VariantPaths(e.cfg.UploadDir), plan.TargetDir)
	out := &Success{ID: id, OldPath: oldPath, NewPath: newPath, Variants: variants}
	for _, v := range out.VariantFailures() {
		log.WarnContext(ctx, "Failed to move variant", "kind", KindVariantMoveFailed,
			"variant", v.Name, "old_path", v.From, "error", v.Err)
		out.Warnings = append(out.Warnings, fmt.Sprintf("variant %s: %v", v.Name, v.Err))
	}

	// Phase 2: store.
	if err := e.rewriter.UpdateMetadata(ctx, item, newPath, plan, variants); err != nil {
		ie := &ItemError{Kind: KindMetadataUpdateFailed, ID: id, Reason: "file moved but failed to update database", Err: err}
		log.ErrorContext(ctx, "Failed to update database", "kind", ie.Kind, "old_path", oldPath, "new_path", newPath, "error", err)
		return ie.failure(oldPath, newPath)
	}

	n, errs := e.rewriter.RewriteReferences(ctx, oldPath, newPath, variants)
	out.ReferencesUpdated = n
	for _, err := range errs {
		log.WarnContext(ctx, "Failed to rewrite references", "kind", KindReferenceRewriteFailed, "error", err)
		out.Warnings = append(out.Warnings, err.Error())
	}

	runlog.Success(ctx, log, "Successfully reclassified media",
		"old_path", oldPath, "new_path", newPath, "references_updated", n)
	return out
}

// dryRun resolves collisions against the disk as earlier items in this batch
// would have left it, and writes nothing.
func (e *Engine) dryRun(item *model.MediaItem, oldPath string, plan planner.Plan, reserved *planner.Reservations) Outcome {
	target := planner.Unique(plan.Target, reserved.Exists)
	reserved.Claim(target)
	reserved.Vacate(oldPath)

	out := &Success{ID: item.ID, OldPath: oldPath, NewPath: target, DryRun: true}
	variants := item.VariantPaths(e.cfg.UploadDir)
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)

	claimed := map[string]string{}
	for _, name := range names {
		src := variants[name]
		dst, ok := claimed[src]
		if !ok {
			if !reserved.Exists(src) {
				continue
			}
			dst = planner.Unique(filepath.Join(plan.TargetDir, filepath.Base(src)), reserved.Exists)
			reserved.Claim(dst)
			reserved.Vacate(src)
			claimed[src] = dst
		}
		out.Variants = append(out.Variants, mover.VariantMove{Name: name, From: src, To: dst})
	}
	return out
}

func validate(f model.BatchFilter) error {
	if f.Limit < 1 || f.Limit > MaxBatchSize {
		return fmt.Errorf("%w: batch size %d not in 1..%d", ErrInvalidFilter, f.Limit, MaxBatchSize)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidFilter, f.Offset)
	}
	return validateDates(f)
}

func validateDates(f model.BatchFilter) error {
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return fmt.Errorf("%w: date-from %s is after date-to %s", ErrInvalidFilter,
			f.DateFrom.Format(time.DateOnly), f.DateTo.Format(time.DateOnly))
	}
	return nil
}
