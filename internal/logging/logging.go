// Package logging builds the process logger: a slog text handler writing to
// stdout, stderr (when stdout carries protocol traffic) or a size-capped file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	maxFileSize  = 6 * 1024 * 1024
	keepFileSize = 5 * 1024 * 1024
)

// Options selects the log destination and level.
type Options struct {
	Level string
	// Path, when set, sends logs to a size-capped file.
	Path string
	// StdoutReserved sends console logs to stderr.
	StdoutReserved bool
}

// New builds a logger. The returned close func releases the log file, if any.
// A file that cannot be opened falls back to the console with a warning.
func New(opts Options) (*slog.Logger, func() error) {
	var w io.Writer = os.Stdout
	if opts.StdoutReserved {
		w = os.Stderr
	}
	closeFn := func() error { return nil }

	var fileErr error
	if opts.Path != "" {
		fw, err := NewFileWriter(opts.Path)
		if err != nil {
			fileErr = err
		} else {
			w = fw
			closeFn = fw.Close
		}
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}))
	if fileErr != nil {
		logger.Warn("log file unavailable, logging to console", "path", opts.Path, "error", fileErr)
	}
	return logger, closeFn
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FileWriter appends to a file and, once it grows past 6 MiB, keeps only
// the newest 5 MiB.
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	maxSize  int64
	keepSize int64
}

// NewFileWriter opens path for appending, creating its directory.
func NewFileWriter(path string) (*FileWriter, error) {
	return newFileWriter(path, maxFileSize, keepFileSize)
}

func newFileWriter(path string, maxSize, keepSize int64) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	w := &FileWriter{file: file, maxSize: maxSize, keepSize: keepSize}
	if err := w.truncateIfNeeded(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.truncateIfNeeded()
}

// Close closes the file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *FileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.maxSize {
		return nil
	}

	buf := make([]byte, w.keepSize)
	n, err := w.file.ReadAt(buf, size-w.keepSize)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end regardless of offset.
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	return nil
}
