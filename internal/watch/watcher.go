// Package watch reloads a user's board when their blobs change on disk
// outside this process.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kazz187/agentboard/internal/collection"
)

// DebounceInterval lets the events of one atomic replace settle before the
// blob is inspected.
const DebounceInterval = 100 * time.Millisecond

// OwnWrites recognises blobs written by this process.
type OwnWrites interface {
	WroteContent(key string, data []byte) bool
}

type Watcher struct {
	baseDir  string
	own      OwnWrites
	onChange func(userID string)
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New watches baseDir/users. onChange receives the owner of every blob that
// changed to content this process did not write.
func New(baseDir string, own OwnWrites, onChange func(userID string), opts ...Option) *Watcher {
	w := &Watcher{
		baseDir:  baseDir,
		own:      own,
		onChange: onChange,
		debounce: DebounceInterval,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	defer w.stopPending()

	usersDir := filepath.Join(w.baseDir, "users")
	if err := os.MkdirAll(usersDir, 0o755); err != nil {
		return err
	}
	// fsnotify is not recursive: watch users/ and every user directory.
	if err := watcher.Add(usersDir); err != nil {
		return err
	}
	entries, err := os.ReadDir(usersDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := watcher.Add(filepath.Join(usersDir, e.Name())); err != nil {
				return err
			}
		}
	}
	slog.InfoContext(ctx, "watching storage", "dir", usersDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == usersDir {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						slog.WarnContext(ctx, "failed to watch user directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			w.handle(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	if strings.HasSuffix(event.Name, ".tmp") {
		return
	}
	rel, err := filepath.Rel(w.baseDir, event.Name)
	if err != nil {
		return
	}
	key := filepath.ToSlash(rel)
	if _, ok := collection.ParseUserKey(key); !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[key]; ok {
		t.Stop()
	}
	w.pending[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()
		w.settle(ctx, key)
	})
}

func (w *Watcher) settle(ctx context.Context, key string) {
	uid, _ := collection.ParseUserKey(key)
	data, err := os.ReadFile(filepath.Join(w.baseDir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "failed to read changed blob", "key", key, "error", err)
		return
	}
	if err == nil && w.own.WroteContent(key, data) {
		return
	}
	slog.InfoContext(ctx, "blob changed outside the server", "key", key)
	w.onChange(uid)
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, t := range w.pending {
		t.Stop()
		delete(w.pending, key)
	}
}
