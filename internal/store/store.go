// Package store keeps one in-memory entity collection in sync with its backend.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kazz187/agentboard/internal/metrics"
	"github.com/kazz187/agentboard/pkg/cerr"
)

var (
	ErrNotReady = cerr.NewError(cerr.FailedPrecondition, "collection is not loaded", nil)
	ErrNotFound = cerr.NewError(cerr.NotFound, "record not found", nil)
)

type Entity interface {
	Key() string
}

// Backend is the persistence capability a Store needs. The concrete variant
// is chosen at startup.
type Backend[T Entity] interface {
	Fetch(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, v T) (T, error)
	Replace(ctx context.Context, v T) error
	Remove(ctx context.Context, id string) error
}

// UserRepository is a backend shared by all users; ForUser binds it to one.
type UserRepository[T Entity] interface {
	Fetch(ctx context.Context, userID string) ([]T, error)
	Insert(ctx context.Context, userID string, v T) (T, error)
	Replace(ctx context.Context, userID string, v T) error
	Remove(ctx context.Context, userID, id string) error
}

type userBackend[T Entity] struct {
	repo   UserRepository[T]
	userID string
}

func ForUser[T Entity](repo UserRepository[T], userID string) Backend[T] {
	return &userBackend[T]{repo: repo, userID: userID}
}

func (b *userBackend[T]) Fetch(ctx context.Context) ([]T, error) {
	return b.repo.Fetch(ctx, b.userID)
}

func (b *userBackend[T]) Insert(ctx context.Context, v T) (T, error) {
	return b.repo.Insert(ctx, b.userID, v)
}

func (b *userBackend[T]) Replace(ctx context.Context, v T) error {
	return b.repo.Replace(ctx, b.userID, v)
}

func (b *userBackend[T]) Remove(ctx context.Context, id string) error {
	return b.repo.Remove(ctx, b.userID, id)
}

type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

type Change[T Entity] struct {
	Kind ChangeKind
	ID   string
	// Value is the zero value for Deleted.
	Value T
}

type Options[T Entity] struct {
	// Name labels logs and metrics, e.g. "tasks".
	Name string
	// Touch stamps the update time on a record before it is replaced.
	Touch    func(v T, now time.Time) T
	OnChange func(Change[T])
	Now      func() time.Time
	// FetchTimeout bounds one shared fetch. Defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration
}

const DefaultFetchTimeout = 30 * time.Second

type Store[T Entity] struct {
	backend Backend[T]
	opts    Options[T]

	mu            sync.RWMutex
	state         State
	authenticated bool
	stale         bool
	generation    int
	items         []T
	lastErr       error

	fetches singleflight.Group
}

func New[T Entity](backend Backend[T], opts Options[T]) *Store[T] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	return &Store[T]{backend: backend, opts: opts, state: AuthPending}
}

func (s *Store[T]) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store[T]) Loaded() bool {
	return s.State().Loaded()
}

// Err is the error of the last failed fetch, if the store is in FetchFailed.
func (s *Store[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Items returns a copy of the collection in display order.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// ResolveAuth records the outcome of principal resolution. Losing the
// principal empties the collection; gaining it arms the next Load.
func (s *Store[T]) ResolveAuth(authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !authenticated {
		s.generation++
		s.authenticated = false
		s.state = Unauthenticated
		s.items = nil
		s.lastErr = nil
		return
	}
	if s.state == AuthPending || s.state == Unauthenticated {
		s.authenticated = true
		s.state = AuthPending
	}
}

// Invalidate makes the next Load refetch. The current collection stays
// visible until then.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Ready || s.state == FetchFailed {
		s.stale = true
	}
}

// Load fetches the collection once. Concurrent callers share the same fetch;
// once Ready, later calls are no-ops until Invalidate. A FetchFailed store
// fetches again on the next Load. The fetch error is returned to every waiter
// and kept in Err.
//
// The shared fetch does not inherit ctx cancellation, so a waiter that gives
// up returns ctx.Err() without failing the others.
func (s *Store[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case !s.authenticated:
		s.mu.Unlock()
		return nil
	case s.state == Ready && !s.stale:
		s.mu.Unlock()
		return nil
	}
	if s.state != Fetching {
		s.state = Fetching
		s.stale = false
	}
	gen := s.generation
	s.mu.Unlock()

	ch := s.fetches.DoChan(strconv.Itoa(gen), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FetchTimeout)
		defer cancel()
		return nil, s.fetch(fetchCtx, gen)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store[T]) fetch(ctx context.Context, gen int) error {
	s.mu.RLock()
	done := s.state != Fetching && gen == s.generation
	lastErr := s.lastErr
	s.mu.RUnlock()
	if done {
		// A fetch for this generation finished between our check and Do.
		return lastErr
	}

	items, err := s.backend.Fetch(ctx)
	s.record("fetch", err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Signed out while fetching; the result belongs to nobody.
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch collection", "store", s.opts.Name, "error", err)
		s.state = FetchFailed
		s.items = nil
		s.lastErr = err
		return err
	}
	s.state = Ready
	s.items = items
	s.lastErr = nil
	return nil
}

// Add persists v and prepends the record the backend returned.
func (s *Store[T]) Add(ctx context.Context, v T) (T, error) {
	var zero T
	if err := s.requireReady(); err != nil {
		return zero, err
	}
	created, err := s.backend.Insert(ctx, v)
	if err = s.recordMutation(ctx, "add", v.Key(), err); err != nil {
		return zero, err
	}

	s.mu.Lock()
	s.items = slices.Insert(s.items, 0, created)
	s.mu.Unlock()

	s.notify(Change[T]{Kind: Created, ID: created.Key(), Value: created})
	return created, nil
}

// Update replaces the whole record with the same key. The in-memory record
// changes only after the backend accepted the replacement.
func (s *Store[T]) Update(ctx context.Context, v T) (T, error) {
	var zero T
	if err := s.requireReady(); err != nil {
		return zero, err
	}
	if _, ok := s.Get(v.Key()); !ok {
		return zero, ErrNotFound
	}
	if s.opts.Touch != nil {
		v = s.opts.Touch(v, s.opts.Now())
	}
	err := s.backend.Replace(ctx, v)
	if err = s.recordMutation(ctx, "update", v.Key(), err); err != nil {
		return zero, err
	}

	s.mu.Lock()
	if i := s.indexLocked(v.Key()); i >= 0 {
		s.items[i] = v
	}
	s.mu.Unlock()

	s.notify(Change[T]{Kind: Updated, ID: v.Key(), Value: v})
	return v, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.requireReady(); err != nil {
		return err
	}
	if _, ok := s.Get(id); !ok {
		return ErrNotFound
	}
	err := s.backend.Remove(ctx, id)
	if err = s.recordMutation(ctx, "delete", id, err); err != nil {
		return err
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.mu.Unlock()

	s.notify(Change[T]{Kind: Deleted, ID: id})
	return nil
}

func (s *Store[T]) requireReady() error {
	if s.State() != Ready {
		return ErrNotReady
	}
	return nil
}

func (s *Store[T]) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(v T) bool { return v.Key() == id })
}

func (s *Store[T]) recordMutation(ctx context.Context, op, id string, err error) error {
	s.record(op, err)
	if err != nil {
		slog.ErrorContext(ctx, fmt.Sprintf("failed to %s record", op), "store", s.opts.Name, "id", id, "error", err)
	}
	return err
}

func (s *Store[T]) record(op string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
	}
	metrics.StoreOperations.WithLabelValues(s.opts.Name, op, result).Inc()
}

func (s *Store[T]) notify(c Change[T]) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(c)
	}
}
