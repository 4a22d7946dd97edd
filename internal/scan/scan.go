// Package scan discovers media files under an upload tree and registers them as attachments.
package scan

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/rcliao/media-reclassify/internal/model"
	"github.com/rcliao/media-reclassify/internal/runlog"
	"github.com/rcliao/media-reclassify/internal/store"
)

var photoExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".heic": true, ".heif": true, ".tif": true, ".tiff": true, ".dng": true,
}

var otherExts = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".webm": true, ".avi": true,
	".mp3": true, ".m4a": true, ".wav": true, ".ogg": true,
	".pdf": true, ".svg": true,
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	runlog.DirName: true,
	"cache":        true,
}

// Date sources, recorded on each Item.
const (
	SourceEXIF     = "exif"
	SourceFilename = "filename"
	SourceModTime  = "mtime"
)

// datePatterns are tried in order; first match wins.
var datePatterns = []struct {
	regex  *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`(\d{8})_\d{6}`), "20060102"},                 // IMG_20230315_101500.jpg
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},         // 2023-03-15 photo.jpg
	{regexp.MustCompile(`(?:^|[^\d])(\d{8})(?:[^\d]|$)`), "20060102"}, // 20230315.jpg
}

var variantName = regexp.MustCompile(`^(.+)-(\d+)x(\d+)$`)

// Item is one discovered primary file with its sibling variants.
type Item struct {
	Path     string // absolute
	Rel      string // slash-separated, relative to the scan base
	MimeType string
	Created  time.Time
	Source   string
	Variants map[string]model.Variant
}

// Params converts the item into store parameters.
func (it Item) Params() store.PutAttachmentParams {
	p := store.PutAttachmentParams{
		Title:     strings.TrimSuffix(filepath.Base(it.Rel), filepath.Ext(it.Rel)),
		MimeType:  it.MimeType,
		CreatedAt: it.Created,
		File:      it.Rel,
	}
	if len(it.Variants) > 0 {
		p.Meta = &model.AttachmentMeta{File: it.Rel, Sizes: it.Variants}
	}
	return p
}

// Discover walks base and returns every media file, grouping "name-WxH.ext"
// siblings under "name.ext" when that file exists. Hidden entries and the
// run-log directory are skipped. Results are sorted by path.
func Discover(base string) ([]Item, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}

	byDir := map[string][]string{}
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		name := d.Name()
		if d.IsDir() {
			if path != base && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !IsMedia(name) {
			return nil
		}
		dir := filepath.Dir(path)
		byDir[dir] = append(byDir[dir], name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var items []Item
	for dir, names := range byDir {
		items = append(items, group(base, dir, names)...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Rel < items[j].Rel })
	return items, nil
}

func group(base, dir string, names []string) []Item {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	variants := map[string]map[string]model.Variant{}
	for _, n := range names {
		ext := filepath.Ext(n)
		m := variantName.FindStringSubmatch(strings.TrimSuffix(n, ext))
		if m == nil || !present[m[1]+ext] {
			continue
		}
		w, _ := strconv.Atoi(m[2])
		h, _ := strconv.Atoi(m[3])
		primary := m[1] + ext
		if variants[primary] == nil {
			variants[primary] = map[string]model.Variant{}
		}
		variants[primary][m[2]+"x"+m[3]] = model.Variant{File: n, Width: w, Height: h, MimeType: mimeType(n)}
		delete(present, n)
	}

	var out []Item
	for _, n := range names {
		if !present[n] {
			continue
		}
		path := filepath.Join(dir, n)
		rel, _ := filepath.Rel(base, path)
		created, source := CaptureDate(path)
		out = append(out, Item{
			Path:     path,
			Rel:      filepath.ToSlash(rel),
			MimeType: mimeType(n),
			Created:  created,
			Source:   source,
			Variants: variants[n],
		})
	}
	return out
}

// IsMedia reports whether name has a supported media extension.
func IsMedia(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return photoExts[ext] || otherExts[ext]
}

func mimeType(name string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}

// CaptureDate determines the best available creation date for a file:
// EXIF DateTime for photos, then a date in the file name, then mtime.
func CaptureDate(path string) (time.Time, string) {
	if photoExts[strings.ToLower(filepath.Ext(path))] {
		if t, err := exifDate(path); err == nil {
			return t, SourceEXIF
		}
	}
	if t, ok := DateFromFilename(filepath.Base(path)); ok {
		return t, SourceFilename
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime(), SourceModTime
	}
	return time.Now(), SourceModTime
}

func exifDate(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}
	return x.DateTime()
}

// DateFromFilename extracts a date from the file name, interpreted in local time.
func DateFromFilename(name string) (time.Time, bool) {
	for _, p := range datePatterns {
		m := p.regex.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		t, err := time.ParseInLocation(p.layout, m[1], time.Local)
		if err == nil && t.Year() >= 1970 {
			return t, true
		}
	}
	return time.Time{}, false
}

// Registrar is the store subset Register needs.
type Registrar interface {
	HasFile(ctx context.Context, relPath string) (bool, error)
	PutAttachment(ctx context.Context, p store.PutAttachmentParams) (*model.MediaItem, error)
}

// Result counts what Register did.
type Result struct {
	Found    int `json:"found"`
	Added    int `json:"added"`
	Existing int `json:"existing"`
	Variants int `json:"variants"`
}

// Register adds every item whose path the store does not already record.
func Register(ctx context.Context, st Registrar, items []Item) (Result, error) {
	res := Result{Found: len(items)}
	for _, it := range items {
		has, err := st.HasFile(ctx, it.Rel)
		if err != nil {
			return res, err
		}
		if has {
			res.Existing++
			continue
		}
		if _, err := st.PutAttachment(ctx, it.Params()); err != nil {
			return res, err
		}
		res.Added++
		res.Variants += len(it.Variants)
	}
	return res, nil
}
