package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

func TestOpenWritesLevels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fixed := time.Date(2024, 2, 3, 4, 5, 6, 0, time.Local)
	l, err := Open(Options{Dir: dir, Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx := context.Background()
	l.Info("already placed", "attachment_id", 1)
	Success(ctx, l.Logger, "moved", "attachment_id", 2)
	l.Warn("variant failed", "attachment_id", 3)
	l.Error("move failed", "attachment_id", 4)
	l.Close()

	if l.Name() != "reclassification-2024-02-03_04-05-06.log" {
		t.Errorf("unexpected file name %s", l.Name())
	}
	if _, err := os.Stat(filepath.Join(dir, ".htaccess")); err != nil {
		t.Errorf("expected .htaccess in new log dir: %v", err)
	}

	entries := readEntries(t, l.Path)
	want := []string{"INFO", "SUCCESS", "WARNING", "ERROR"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e["level"] != want[i] {
			t.Errorf("entry %d: level %v, want %s", i, e["level"], want[i])
		}
		if e["run"] != l.RunID || l.RunID == "" {
			t.Errorf("entry %d: missing run id", i)
		}
	}
	if entries[1]["attachment_id"].(float64) != 2 {
		t.Errorf("context not recorded: %v", entries[1])
	}
}

func TestErrorOnly(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(Options{Dir: dir, FileName: "errors.log", ErrorOnly: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Info("skip")
	Success(context.Background(), l.Logger, "ok")
	l.Warn("warn")
	l.Error("boom")
	l.Close()

	entries := readEntries(t, filepath.Join(dir, "errors.log"))
	if len(entries) != 2 || entries[0]["level"] != "WARNING" || entries[1]["level"] != "ERROR" {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestAppendsToNamedFile(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		l, err := Open(Options{Dir: dir, FileName: "run.log"})
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		l.Error("line")
		l.Close()
	}
	if n := len(readEntries(t, filepath.Join(dir, "run.log"))); n != 2 {
		t.Errorf("expected 2 appended entries, got %d", n)
	}
}

func TestListTailPrune(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := filepath.Join(dir, "old.log")
	recent := filepath.Join(dir, "recent.log")
	os.WriteFile(old, []byte("a\nb\nc\n"), 0o644)
	os.WriteFile(recent, []byte("x\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)
	os.Chtimes(old, now.Add(-40*24*time.Hour), now.Add(-40*24*time.Hour))

	files, err := List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0].Name != "recent.log" {
		t.Fatalf("expected recent.log first of 2, got %+v", files)
	}

	tail, err := Tail(dir, "old.log", 2)
	if err != nil || tail != "b\nc" {
		t.Errorf("tail = %q, %v", tail, err)
	}
	if _, err := Tail(dir, "../secret.log", 0); err == nil {
		t.Error("expected traversal to be rejected")
	}

	n, err := Prune(dir, 30*24*time.Hour, now)
	if err != nil || n != 1 {
		t.Errorf("prune removed %d, %v", n, err)
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("recent log removed")
	}

	if err := Remove(dir, "recent.log"); err != nil {
		t.Errorf("remove: %v", err)
	}
	files, _ = List(dir)
	if len(files) != 0 {
		t.Errorf("expected empty dir, got %+v", files)
	}
}

func TestPruneReportsFailedRemovals(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	stale := now.Add(-40 * 24 * time.Hour)
	for _, name := range []string{"a.log", "b.log", "locked.log"} {
		p := filepath.Join(dir, name)
		os.WriteFile(p, []byte("x\n"), 0o644)
		os.Chtimes(p, stale, stale)
	}

	removeFile = func(path string) error {
		if filepath.Base(path) == "locked.log" {
			return &os.PathError{Op: "remove", Path: path, Err: os.ErrPermission}
		}
		return os.Remove(path)
	}
	t.Cleanup(func() { removeFile = os.Remove })

	n, err := Prune(dir, 30*24*time.Hour, now)
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if !errors.Is(err, os.ErrPermission) || !strings.Contains(err.Error(), "locked.log") {
		t.Errorf("expected the failed removal to be reported, got %v", err)
	}
	if files, _ := List(dir); len(files) != 1 || files[0].Name != "locked.log" {
		t.Errorf("expected only locked.log left, got %+v", files)
	}
}
