// Package termhost runs the engine against files on disk and renders
// placements to a terminal.
package termhost

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
	"go.ntppool.org/common/logger"

	"go.ntppool.org/roast/engine"
	"go.ntppool.org/roast/metrics"
)

// File is an engine.Source backed by a file on disk.
type File struct {
	path      string
	contextID string

	mu    sync.Mutex
	lines []string
}

// NewFile returns a source for path. An empty contextID is derived from
// the file name.
func NewFile(path, contextID string) *File {
	if contextID == "" {
		contextID = ContextForPath(path)
	}
	return &File{path: path, contextID: contextID}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Context() string {
	return f.contextID
}

// Snapshot reads the file. Editors that save by renaming a temporary
// file leave a short window where the file is missing, so a missing
// file is retried briefly before giving up.
func (f *File) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	expback := backoff.NewExponentialBackOff()
	expback.InitialInterval = 10 * time.Millisecond
	expback.MaxInterval = 200 * time.Millisecond

	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		data, err := os.ReadFile(f.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, backoff.Permanent(err)
		}
		return data, err
	}, backoff.WithBackOff(expback), backoff.WithMaxElapsedTime(time.Second))
	if err != nil {
		return engine.Snapshot{}, err
	}

	lines := SplitLines(string(data))

	f.mu.Lock()
	f.lines = lines
	f.mu.Unlock()

	return engine.Snapshot{
		Document: f.path,
		Context:  f.contextID,
		Lines:    lines,
	}, nil
}

// Lines returns the lines read by the last Snapshot.
func (f *File) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines
}

// Watch calls notify whenever the file is written, created or renamed
// into place, until ctx is done.
func (f *File) Watch(ctx context.Context, notify func()) error {
	log := logger.FromContext(ctx).WithGroup("termhost")

	dir, name := filepath.Dir(f.path), filepath.Base(f.path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	log.InfoContext(ctx, "watching file", "path", f.path, "context", f.contextID)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.DebugContext(ctx, "file changed", "event", event.String())
			metrics.Add(ctx, metrics.HostEvents, 1)
			notify()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WarnContext(ctx, "file watcher error", "err", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// SplitLines splits text into lines without their terminators. A
// trailing newline doesn't start another line.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
