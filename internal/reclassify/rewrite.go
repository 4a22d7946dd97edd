package reclassify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rcliao/media-reclassify/internal/model"
	"github.com/rcliao/media-reclassify/internal/mover"
	"github.com/rcliao/media-reclassify/internal/planner"
)

// Rewriter updates the store after the primary file has moved.
type Rewriter struct {
	store   Store
	base    string
	baseURL string
}

// NewRewriter returns a Rewriter for an upload base and its public URL.
func NewRewriter(st Store, base, baseURL string) *Rewriter {
	return &Rewriter{store: st, base: base, baseURL: strings.TrimRight(baseURL, "/")}
}

// UpdateMetadata records the new primary path and refreshes the metadata block.
// Variant file names are only touched when collision resolution renamed them.
func (r *Rewriter) UpdateMetadata(ctx context.Context, item *model.MediaItem, newPath string, plan planner.Plan, variants []mover.VariantMove) error {
	if err := r.store.SetPrimaryPath(ctx, item.ID, r.relative(newPath)); err != nil {
		return err
	}
	if item.Meta == nil {
		return nil
	}

	meta := *item.Meta
	meta.File = plan.Year + "/" + plan.Month + "/" + filepath.Base(newPath)
	if len(meta.Sizes) > 0 {
		sizes := make(map[string]model.Variant, len(meta.Sizes))
		for name, v := range meta.Sizes {
			sizes[name] = v
		}
		for _, vm := range variants {
			if !vm.Moved() {
				continue
			}
			v := sizes[vm.Name]
			v.File = filepath.Base(vm.To)
			sizes[vm.Name] = v
		}
		meta.Sizes = sizes
	}
	return r.store.SetVariantMetadata(ctx, item.ID, meta)
}

// RewriteReferences replaces the old public URLs of the primary file and every
// moved variant across all content. Returns rows changed and per-URL errors.
func (r *Rewriter) RewriteReferences(ctx context.Context, oldPath, newPath string, variants []mover.VariantMove) (int64, []error) {
	pairs := [][2]string{{oldPath, newPath}}
	seen := map[string]bool{}
	for _, vm := range variants {
		if vm.Moved() && !seen[vm.From] {
			seen[vm.From] = true
			pairs = append(pairs, [2]string{vm.From, vm.To})
		}
	}

	var total int64
	var errs []error
	for _, p := range pairs {
		oldURL, ok1 := r.URL(p[0])
		newURL, ok2 := r.URL(p[1])
		if !ok1 || !ok2 {
			errs = append(errs, fmt.Errorf("%s: outside upload base, references not rewritten", p[0]))
			continue
		}
		n, err := r.store.ReplaceInContent(ctx, oldURL, newURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("rewrite %s: %w", oldURL, err))
			continue
		}
		total += n
	}
	return total, errs
}

// URL maps a path under the upload base to its public URL.
func (r *Rewriter) URL(path string) (string, bool) {
	rel, ok := r.rel(path)
	if !ok {
		return "", false
	}
	return r.baseURL + "/" + rel, true
}

// relative returns the store form of path: slash-separated and relative to the
// upload base, or absolute when path lies outside it.
func (r *Rewriter) relative(path string) string {
	if rel, ok := r.rel(path); ok {
		return rel
	}
	return path
}

func (r *Rewriter) rel(path string) (string, bool) {
	rel, err := filepath.Rel(r.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
