package runlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// removeFile is swapped in tests.
var removeFile = os.Remove

// DirName is the log directory created under the upload base.
const DirName = "media-reclassify-logs"

// FileInfo describes one log file.
type FileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// List returns the .log files in dir, newest first.
func List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     e.Name(),
			Path:     filepath.Join(dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })
	return files, nil
}

// resolve confines name to dir.
func resolve(dir, name string) (string, error) {
	base := filepath.Base(name)
	if base != name || filepath.Ext(base) != ".log" {
		return "", fmt.Errorf("invalid log file name %q", name)
	}
	return filepath.Join(dir, base), nil
}

// Tail returns the last n lines of a log file. n <= 0 returns the whole file.
func Tail(dir, name string, n int) (string, error) {
	path, err := resolve(dir, name)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := strings.TrimRight(string(b), "\n")
	if n <= 0 {
		return content, nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n"), nil
}

// Remove deletes a single log file.
func Remove(dir, name string) error {
	path, err := resolve(dir, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Prune deletes log files last modified before now minus keep. Returns the
// count removed and the joined errors of any files it could not delete.
func Prune(dir string, keep time.Duration, now time.Time) (int, error) {
	files, err := List(dir)
	if err != nil {
		return 0, err
	}
	threshold := now.Add(-keep)
	removed := 0
	var errs []error
	for _, f := range files {
		if !f.Modified.Before(threshold) {
			continue
		}
		if err := removeFile(f.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
