// Package collection stores a user's entity list as a single JSON blob.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/kazz187/agentboard/pkg/cerr"
	"github.com/kazz187/agentboard/pkg/storage"
)

const usersPrefix = "users"

// Collection reads and rewrites users/<uid>/<name>.json. Writes always
// replace the whole blob.
type Collection[T any] struct {
	storage storage.Storage
	name    string
	target  string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a collection stored under name. target names one element in
// error messages, e.g. "task".
func New[T any](s storage.Storage, name, target string) *Collection[T] {
	return &Collection[T]{
		storage: s,
		name:    name,
		target:  target,
		locks:   make(map[string]*sync.Mutex),
	}
}

func UserDir(userID string) string {
	return path.Join(usersPrefix, url.PathEscape(userID))
}

// ParseUserKey returns the owner of a collection key laid out by Key.
func ParseUserKey(key string) (string, bool) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	if len(parts) != 3 || parts[0] != usersPrefix || !strings.HasSuffix(parts[2], ".json") {
		return "", false
	}
	uid, err := url.PathUnescape(parts[1])
	if err != nil || uid == "" {
		return "", false
	}
	return uid, true
}

func (c *Collection[T]) Key(userID string) string {
	return path.Join(UserDir(userID), c.name+".json")
}

// Name is the storage key name without directory or extension.
func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) lock(userID string) func() {
	c.mu.Lock()
	l, ok := c.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[userID] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Load returns the stored elements. A missing blob is an empty collection.
// So is a corrupt one; the corruption is logged, not returned.
func (c *Collection[T]) Load(ctx context.Context, userID string) ([]T, error) {
	key := c.Key(userID)
	data, err := c.storage.Read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.WrapStorageReadError(c.target+"s", err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.ErrorContext(ctx, "corrupt collection treated as empty", "key", key, "error", err)
		return nil, nil
	}
	return items, nil
}

// Mutate loads the collection, applies fn and writes the result back, holding
// a per-user lock so concurrent mutations in this process do not interleave.
func (c *Collection[T]) Mutate(ctx context.Context, userID string, fn func([]T) ([]T, error)) error {
	unlock := c.lock(userID)
	defer unlock()

	items, err := c.Load(ctx, userID)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal %ss: %w", c.target, err))
	}
	if err := c.storage.Write(ctx, c.Key(userID), data); err != nil {
		return cerr.WrapStorageWriteError(c.target+"s", err)
	}
	return nil
}

// NotFound is the error Mutate callbacks return for a missing element.
func (c *Collection[T]) NotFound() error {
	return cerr.NewError(cerr.NotFound, c.target+" not found", nil)
}
