// Package mover relocates a primary media file and its variants into a target directory.
package mover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rcliao/media-reclassify/internal/planner"
)

var (
	// ErrCreateDir is returned when the target directory cannot be created.
	// No rename is attempted in that case.
	ErrCreateDir = errors.New("failed to create directory")
	// ErrMove is returned when the primary rename fails. The source is untouched.
	ErrMove = errors.New("failed to move file")
)

// Mover performs renames. The zero value is not usable; call New.
type Mover struct {
	MkdirAll func(path string, perm os.FileMode) error
	Rename   func(oldpath, newpath string) error
	Exists   planner.ExistsFunc
}

// New returns a Mover backed by the os package.
func New() *Mover {
	return &Mover{
		MkdirAll: os.MkdirAll,
		Rename:   os.Rename,
		Exists:   planner.OnDisk,
	}
}

// MovePrimary ensures targetDir exists, picks a collision-free name for
// target at move time, and renames src there. Returns the final path.
func (m *Mover) MovePrimary(src, targetDir, target string) (string, error) {
	if err := m.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrCreateDir, targetDir, err)
	}

	dst := planner.Unique(target, m.Exists)
	if err := m.Rename(src, dst); err != nil {
		return "", fmt.Errorf("%w %s -> %s: %w", ErrMove, src, dst, err)
	}
	return dst, nil
}

// VariantMove is the result of relocating one variant.
type VariantMove struct {
	Name    string `json:"name"`
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
	Missing bool   `json:"missing,omitempty"` // source absent; nothing done
	Err     error  `json:"-"`
}

// Moved reports whether the variant now lives at To.
func (v VariantMove) Moved() bool {
	return !v.Missing && v.Err == nil
}

// MoveVariants relocates each variant into targetDir, resolving collisions
// independently per variant. Failures are reported per variant and never
// undo the primary move. Variants sharing one source file move once.
func (m *Mover) MoveVariants(variants map[string]string, targetDir string) []VariantMove {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)

	done := make(map[string]VariantMove, len(variants))
	out := make([]VariantMove, 0, len(variants))
	for _, name := range names {
		src := variants[name]
		if prev, ok := done[src]; ok {
			prev.Name = name
			out = append(out, prev)
			continue
		}

		vm := VariantMove{Name: name, From: src}
		if !m.Exists(src) {
			vm.Missing = true
		} else {
			dst := planner.Unique(filepath.Join(targetDir, filepath.Base(src)), m.Exists)
			if err := m.Rename(src, dst); err != nil {
				vm.Err = err
			} else {
				vm.To = dst
			}
		}
		done[src] = vm
		out = append(out, vm)
	}
	return out
}
