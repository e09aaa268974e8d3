package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix         = "vetref-"
	fileSuffix         = ".log"
	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupInterval    = 24 * time.Hour
)

var partPattern = regexp.MustCompile(`^vetref-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger writes to one file per ISO week and starts a numbered part
// file (vetref-2026-W42_01.log, ...) when the size cap is reached. Files
// older than the retention period are removed by a daily sweep.
type RotatingLogger struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu     sync.Mutex
	file   *os.File
	week   string
	size    int64
	closed  bool
	started bool

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewRotatingLogger creates a logger for dir. A maxFileSize of 0 disables
// size-based rotation.
func NewRotatingLogger(dir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// weekKey formats t as an ISO week, e.g. 2026-W42
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Start opens the current file and launches the retention sweep
func (rl *RotatingLogger) Start() error {
	if err := os.MkdirAll(rl.dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if err := rl.openLocked(weekKey(time.Now()), false); err != nil {
		return err
	}

	rl.started = true
	go rl.sweep()
	return nil
}

func (rl *RotatingLogger) sweep() {
	defer close(rl.done)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			if _, err := rl.cleanupOldLogs(time.Now()); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			}
		}
	}
}

// openLocked switches to the file for week. With full set, the current file
// hit the size cap and the next part is opened. Caller holds mu.
func (rl *RotatingLogger) openLocked(week string, full bool) error {
	if rl.file != nil {
		_ = rl.file.Close()
		rl.file = nil
	}

	name := rl.pickFile(week, full)
	path := filepath.Join(rl.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	rl.file = f
	rl.week = week
	rl.size = 0
	if info, err := f.Stat(); err == nil {
		rl.size = info.Size()
	}
	return nil
}

// pickFile returns the file to append to for week: the base file while it
// has room, else the newest part with room, else a new part.
func (rl *RotatingLogger) pickFile(week string, full bool) string {
	base := filePrefix + week + fileSuffix
	if !full && !rl.atCap(filepath.Join(rl.dir, base)) {
		return base
	}

	parts, _ := filepath.Glob(filepath.Join(rl.dir, filePrefix+week+"_??"+fileSuffix))
	sort.Strings(parts)

	next := 1
	if n := len(parts); n > 0 {
		last := parts[n-1]
		if m := partPattern.FindStringSubmatch(filepath.Base(last)); m != nil {
			num, _ := strconv.Atoi(m[1])
			if !full && !rl.atCap(last) {
				return filepath.Base(last)
			}
			next = num + 1
		}
	}
	return fmt.Sprintf("%s%s_%02d%s", filePrefix, week, next, fileSuffix)
}

func (rl *RotatingLogger) atCap(path string) bool {
	if rl.maxFileSize <= 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() >= rl.maxFileSize
}

// Write implements io.Writer. It rotates on a new week or when p would push
// the current file past the size cap.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.closed {
		return 0, os.ErrClosed
	}

	week := weekKey(time.Now())
	switch {
	case rl.file == nil || rl.week != week:
		if err := rl.openLocked(week, false); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.size > 0 && rl.size+int64(len(p)) > rl.maxFileSize:
		if err := rl.openLocked(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// cleanupOldLogs removes log files last modified before now minus the
// retention period and returns how many were deleted.
func (rl *RotatingLogger) cleanupOldLogs(now time.Time) (int, error) {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0, fmt.Errorf("read log directory: %w", err)
	}

	cutoff := now.Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(rl.dir, name)) == nil {
			deleted++
		}
	}
	return deleted, nil
}

// Close stops the sweep and closes the current file. It is safe to call
// more than once.
func (rl *RotatingLogger) Close() error {
	var err error
	rl.once.Do(func() {
		close(rl.stop)

		rl.mu.Lock()
		started := rl.started
		rl.mu.Unlock()
		if started {
			select {
			case <-rl.done:
			case <-time.After(time.Second):
			}
		}

		rl.mu.Lock()
		defer rl.mu.Unlock()
		rl.closed = true
		if rl.file != nil {
			err = rl.file.Close()
			rl.file = nil
		}
	})
	return err
}

// multiHandler fans records out to several handlers. Console gets text,
// the rotating file gets JSON.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
