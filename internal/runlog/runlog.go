// Package runlog writes the durable, line-oriented log of a reclassification run
// and manages the log directory.
package runlog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// LevelSuccess sits between INFO and WARNING, so error-only logs drop it.
const LevelSuccess = slog.Level(2)

// Options configures Open.
type Options struct {
	Dir       string
	FileName  string // default reclassification-YYYY-MM-DD_HH-MM-SS.log
	ErrorOnly bool   // keep only WARNING and ERROR
	Now       func() time.Time
}

// Log is an open run log.
type Log struct {
	*slog.Logger
	Path  string
	RunID string
	f     *os.File
}

// Open creates the log directory if needed and opens the log file for append.
func Open(opts Options) (*Log, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("log dir is required")
	}
	if err := ensureDir(opts.Dir); err != nil {
		return nil, err
	}

	name := opts.FileName
	if name == "" {
		name = "reclassification-" + now().Format("2006-01-02_15-04-05") + ".log"
	}
	path := filepath.Join(opts.Dir, filepath.Base(name))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := slog.LevelInfo
	if opts.ErrorOnly {
		level = slog.LevelWarn
	}
	h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevel})

	entropy := rand.New(rand.NewSource(now().UnixNano()))
	runID := ulid.MustNew(ulid.Timestamp(now()), entropy).String()

	return &Log{
		Logger: slog.New(h).With("run", runID),
		Path:   path,
		RunID:  runID,
		f:      f,
	}, nil
}

// Name returns the log file's base name.
func (l *Log) Name() string {
	return filepath.Base(l.Path)
}

// Close closes the underlying file.
func (l *Log) Close() error {
	return l.f.Close()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Success logs msg at LevelSuccess.
func Success(ctx context.Context, l *slog.Logger, msg string, args ...any) {
	l.Log(ctx, LevelSuccess, msg, args...)
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	return slog.String(slog.LevelKey, LevelName(level))
}

// LevelName maps a slog level to ERROR, WARNING, SUCCESS or INFO.
func LevelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= LevelSuccess:
		return "SUCCESS"
	default:
		return "INFO"
	}
}

// ensureDir creates the log directory and denies web access to it, since it
// normally lives inside the public upload tree.
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ".htaccess"), []byte("Order deny,allow\nDeny from all\n"), 0o644)
}
