package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/agentboard/pkg/storage"
)

type recorder struct {
	mu   sync.Mutex
	uids []string
}

func (r *recorder) add(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uids = append(r.uids, uid)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uids...)
}

func startWatcher(t *testing.T) (*storage.LocalStorage, *recorder) {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	// An existing user directory is watched from the start.
	require.NoError(t, s.Write(context.Background(), "users/u1/tasks.json", []byte(`[]`)))

	rec := &recorder{}
	w := New(s.BasePath(), s, rec.add, WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	return s, rec
}

func TestWatcher_ExternalWrite(t *testing.T) {
	s, rec := startWatcher(t)

	path := filepath.Join(s.BasePath(), "users", "u1", "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x"}]`), 0o644))

	require.Eventually(t, func() bool { return len(rec.get()) > 0 }, 2*time.Second, 10*time.Millisecond)
	// Rapid events for one blob collapse into one notification.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"u1"}, rec.get())
}

func TestWatcher_NewUserDirectory(t *testing.T) {
	s, rec := startWatcher(t)

	dir := filepath.Join(s.BasePath(), "users", "u2")
	require.NoError(t, os.Mkdir(dir, 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agents.json"), []byte(`[]`), 0o644))

	require.Eventually(t, func() bool {
		uids := rec.get()
		return len(uids) > 0 && uids[len(uids)-1] == "u2"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresOwnWrites(t *testing.T) {
	s, rec := startWatcher(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "users/u1/tasks.json", []byte(`[{"id":"own"}]`)))
	require.NoError(t, s.Write(ctx, "users/index.json", []byte(`[]`)))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, rec.get())
}
