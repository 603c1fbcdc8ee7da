package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/streamline/pkg/logger"
)

// LogSource produces live log lines for /api/log subscribers. Follow returns
// once the source is ready, then delivers lines until ctx is done or the
// source fails, and closes the channel.
type LogSource interface {
	Follow(ctx context.Context) (<-chan string, error)
}

// FileSource follows a log file from its current end, like tail -f. Lines
// are delivered without their terminator; a trailing partial line is held
// until it is terminated.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string, l *slog.Logger) *FileSource {
	if l == nil {
		l = logger.Nop()
	}
	return &FileSource{path: path, logger: l}
}

func (f *FileSource) Follow(ctx context.Context) (<-chan string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("seek log file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("creating log watcher: %w", err)
	}

	// Watch the directory so rotation (remove + create) is seen.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		file.Close()
		return nil, fmt.Errorf("watching log dir: %w", err)
	}

	out := make(chan string)
	t := &fileTail{
		path:    f.path,
		file:    file,
		reader:  bufio.NewReader(file),
		offset:  offset,
		watcher: watcher,
		out:     out,
		logger:  f.logger,
	}
	go t.run(ctx)

	return out, nil
}

type fileTail struct {
	path    string
	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial strings.Builder
	watcher *fsnotify.Watcher
	out     chan<- string
	logger  *slog.Logger
}

func (t *fileTail) run(ctx context.Context) {
	defer close(t.out)
	defer t.watcher.Close()
	defer func() { t.file.Close() }()

	if err := t.loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Error("following log file", "path", t.path, "error", err)
	}
}

func (t *fileTail) loop(ctx context.Context) error {
	if err := t.readAvailable(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-t.watcher.Events:
			if !ok {
				return errors.New("log watcher closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}

			switch {
			case event.Has(fsnotify.Create):
				if err := t.reopen(); err != nil {
					return err
				}
			case event.Has(fsnotify.Write):
				if err := t.checkTruncated(); err != nil {
					return err
				}
			default:
				continue
			}

			if err := t.readAvailable(ctx); err != nil {
				return err
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return errors.New("log watcher closed")
			}
			return fmt.Errorf("log watcher error: %w", err)
		}
	}
}

// readAvailable delivers every complete line written since the last read.
func (t *fileTail) readAvailable(ctx context.Context) error {
	for {
		chunk, err := t.reader.ReadString('\n')
		t.offset += int64(len(chunk))

		if err != nil {
			if errors.Is(err, io.EOF) {
				t.partial.WriteString(chunk)
				return nil
			}
			return fmt.Errorf("reading log file: %w", err)
		}

		t.partial.WriteString(chunk)
		line := strings.TrimRight(t.partial.String(), "\r\n")
		t.partial.Reset()

		select {
		case t.out <- line:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// checkTruncated restarts from the top when the file shrank under us.
func (t *fileTail) checkTruncated() error {
	info, err := t.file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() >= t.offset {
		return nil
	}

	t.logger.Debug("log file truncated", "path", t.path)
	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}
	t.reset()
	return nil
}

// reopen switches to a newly created file at path, reading it from the top.
func (t *fileTail) reopen() error {
	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("reopening log file: %w", err)
	}

	t.logger.Debug("log file recreated", "path", t.path)
	t.file.Close()
	t.file = file
	t.reset()
	return nil
}

func (t *fileTail) reset() {
	t.reader.Reset(t.file)
	t.offset = 0
	t.partial.Reset()
}
