package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID      string
	Value   string
	Updated time.Time
}

func (r record) Key() string { return r.ID }

type fakeBackend struct {
	mu         sync.Mutex
	items      []record
	fetchCalls atomic.Int32
	fetchGate  chan struct{}
	fetchErr   error
	writeErr   error
}

func (b *fakeBackend) Fetch(ctx context.Context) ([]record, error) {
	b.fetchCalls.Add(1)
	if b.fetchGate != nil {
		select {
		case <-b.fetchGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return append([]record(nil), b.items...), nil
}

func (b *fakeBackend) Insert(_ context.Context, v record) (record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return record{}, b.writeErr
	}
	v.Value += " (stored)"
	b.items = append([]record{v}, b.items...)
	return v, nil
}

func (b *fakeBackend) Replace(_ context.Context, v record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	for i := range b.items {
		if b.items[i].ID == v.ID {
			b.items[i] = v
		}
	}
	return nil
}

func (b *fakeBackend) Remove(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	return nil
}

var fixedNow = time.UnixMilli(1_700_000_000_000)

func newReadyStore(t *testing.T, backend *fakeBackend, changes *[]Change[record]) *Store[record] {
	t.Helper()
	s := New[record](backend, Options[record]{
		Name: "records",
		Touch: func(v record, now time.Time) record {
			v.Updated = now
			return v
		},
		OnChange: func(c Change[record]) {
			if changes != nil {
				*changes = append(*changes, c)
			}
		},
		Now: func() time.Time { return fixedNow },
	})
	s.ResolveAuth(true)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, Ready, s.State())
	return s
}

func TestStore_AuthTransitions(t *testing.T) {
	backend := &fakeBackend{items: []record{{ID: "1"}}}
	s := New[record](backend, Options[record]{Name: "records"})
	ctx := context.Background()

	assert.Equal(t, AuthPending, s.State())
	assert.False(t, s.Loaded())

	// Loading before the principal is known does nothing.
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, AuthPending, s.State())
	assert.Zero(t, backend.fetchCalls.Load())

	s.ResolveAuth(false)
	assert.Equal(t, Unauthenticated, s.State())
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Items())
	require.NoError(t, s.Load(ctx))
	assert.Zero(t, backend.fetchCalls.Load(), "no fetch without a principal")

	s.ResolveAuth(true)
	assert.Equal(t, AuthPending, s.State())
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, Ready, s.State())
	assert.Len(t, s.Items(), 1)

	s.ResolveAuth(false)
	assert.Equal(t, Unauthenticated, s.State())
	assert.Empty(t, s.Items())
}

func TestStore_FetchFailed(t *testing.T) {
	backend := &fakeBackend{fetchErr: errors.New("db down")}
	s := New[record](backend, Options[record]{Name: "records"})
	s.ResolveAuth(true)

	err := s.Load(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, FetchFailed, s.State())
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Items())
	assert.Error(t, s.Err())

	// Every Load retries while the backend keeps failing.
	assert.ErrorContains(t, s.Load(context.Background()), "db down")
	assert.Equal(t, FetchFailed, s.State())
	assert.EqualValues(t, 2, backend.fetchCalls.Load())

	backend.mu.Lock()
	backend.fetchErr = nil
	backend.mu.Unlock()
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, Ready, s.State())
	assert.NoError(t, s.Err())
	assert.EqualValues(t, 3, backend.fetchCalls.Load())

	// Ready stays put until invalidated.
	require.NoError(t, s.Load(context.Background()))
	assert.EqualValues(t, 3, backend.fetchCalls.Load())
}

func TestStore_MutationsAfterFailedFetch(t *testing.T) {
	backend := &fakeBackend{items: []record{{ID: "1"}}, fetchErr: errors.New("connection reset")}
	s := New[record](backend, Options[record]{Name: "records"})
	s.ResolveAuth(true)
	ctx := context.Background()

	assert.Error(t, s.Load(ctx))
	_, err := s.Add(ctx, record{ID: "2"})
	assert.ErrorIs(t, err, ErrNotReady)

	backend.mu.Lock()
	backend.fetchErr = nil
	backend.mu.Unlock()
	require.NoError(t, s.Load(ctx))

	created, err := s.Add(ctx, record{ID: "2", Value: "new"})
	require.NoError(t, err)
	assert.Equal(t, "2", created.ID)
	_, err = s.Update(ctx, record{ID: "1", Value: "changed"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "2"))
	assert.Equal(t, []record{{ID: "1", Value: "changed"}}, s.Items())
}

func TestStore_CancelledWaiterKeepsSharedFetch(t *testing.T) {
	backend := &fakeBackend{items: []record{{ID: "1"}}, fetchGate: make(chan struct{})}
	s := New[record](backend, Options[record]{Name: "records"})
	s.ResolveAuth(true)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error)
	go func() { first <- s.Load(ctx) }()
	require.Eventually(t, func() bool { return backend.fetchCalls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	assert.Equal(t, Fetching, s.State(), "the fetch outlives the cancelled caller")

	second := make(chan error)
	go func() { second <- s.Load(context.Background()) }()
	close(backend.fetchGate)
	require.NoError(t, <-second)

	assert.EqualValues(t, 1, backend.fetchCalls.Load())
	assert.Equal(t, Ready, s.State())
	assert.Len(t, s.Items(), 1)
}

func TestStore_FetchTimeout(t *testing.T) {
	backend := &fakeBackend{fetchGate: make(chan struct{})}
	s := New[record](backend, Options[record]{Name: "records", FetchTimeout: 20 * time.Millisecond})
	s.ResolveAuth(true)

	assert.ErrorIs(t, s.Load(context.Background()), context.DeadlineExceeded)
	assert.Equal(t, FetchFailed, s.State())
	assert.True(t, s.Loaded())

	close(backend.fetchGate)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, Ready, s.State())
}

func TestStore_ConcurrentLoadSharesOneFetch(t *testing.T) {
	backend := &fakeBackend{items: []record{{ID: "1"}}, fetchGate: make(chan struct{})}
	s := New[record](backend, Options[record]{Name: "records"})
	s.ResolveAuth(true)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Load(context.Background()))
		}()
	}
	require.Eventually(t, func() bool { return backend.fetchCalls.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, s.Loaded())
	close(backend.fetchGate)
	wg.Wait()

	assert.EqualValues(t, 1, backend.fetchCalls.Load())
	assert.Equal(t, Ready, s.State())
}

func TestStore_SignOutDuringFetchDiscardsResult(t *testing.T) {
	backend := &fakeBackend{items: []record{{ID: "1"}}, fetchGate: make(chan struct{})}
	s := New[record](backend, Options[record]{Name: "records"})
	s.ResolveAuth(true)

	done := make(chan error)
	go func() { done <- s.Load(context.Background()) }()
	require.Eventually(t, func() bool { return backend.fetchCalls.Load() == 1 }, time.Second, time.Millisecond)

	s.ResolveAuth(false)
	close(backend.fetchGate)
	require.NoError(t, <-done)

	assert.Equal(t, Unauthenticated, s.State())
	assert.Empty(t, s.Items())
}

func TestStore_Mutations(t *testing.T) {
	backend := &fakeBackend{items: []record{{ID: "1", Value: "old"}}}
	var changes []Change[record]
	s := newReadyStore(t, backend, &changes)
	ctx := context.Background()

	created, err := s.Add(ctx, record{ID: "2", Value: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new (stored)", created.Value, "the backend's record is kept")
	assert.Equal(t, "2", s.Items()[0].ID, "prepended")

	updated, err := s.Update(ctx, record{ID: "1", Value: "changed"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, updated.Updated)
	got, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "changed", got.Value)

	require.NoError(t, s.Delete(ctx, "2"))
	assert.Len(t, s.Items(), 1)

	require.Len(t, changes, 3)
	assert.Equal(t, Created, changes[0].Kind)
	assert.Equal(t, Updated, changes[1].Kind)
	assert.Equal(t, Deleted, changes[2].Kind)
	assert.Equal(t, "2", changes[2].ID)
}

func TestStore_RejectedWritesLeaveStateUnchanged(t *testing.T) {
	backend := &fakeBackend{items: []record{{ID: "1", Value: "old"}}}
	var changes []Change[record]
	s := newReadyStore(t, backend, &changes)
	ctx := context.Background()
	backend.writeErr = errors.New("rejected")

	_, err := s.Update(ctx, record{ID: "1", Value: "changed"})
	assert.ErrorContains(t, err, "rejected")
	got, _ := s.Get("1")
	assert.Equal(t, record{ID: "1", Value: "old"}, got)

	_, err = s.Add(ctx, record{ID: "2"})
	assert.Error(t, err)
	assert.Error(t, s.Delete(ctx, "1"))

	assert.Equal(t, []record{{ID: "1", Value: "old"}}, s.Items())
	assert.Empty(t, changes)
}

func TestStore_NotReady(t *testing.T) {
	backend := &fakeBackend{}
	s := New[record](backend, Options[record]{Name: "records"})

	_, err := s.Add(context.Background(), record{ID: "1"})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, s.Delete(context.Background(), "1"), ErrNotReady)
	assert.Empty(t, backend.items)
}

func TestStore_UnknownRecord(t *testing.T) {
	s := newReadyStore(t, &fakeBackend{}, nil)
	_, err := s.Update(context.Background(), record{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

type userRepo struct {
	fakeBackend
	seen string
}

func (r *userRepo) Fetch(ctx context.Context, userID string) ([]record, error) {
	r.seen = userID
	return r.fakeBackend.Fetch(ctx)
}
func (r *userRepo) Insert(ctx context.Context, _ string, v record) (record, error) {
	return r.fakeBackend.Insert(ctx, v)
}
func (r *userRepo) Replace(ctx context.Context, _ string, v record) error {
	return r.fakeBackend.Replace(ctx, v)
}
func (r *userRepo) Remove(ctx context.Context, _ string, id string) error {
	return r.fakeBackend.Remove(ctx, id)
}

func TestForUser(t *testing.T) {
	repo := &userRepo{}
	_, err := ForUser[record](repo, "u42").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u42", repo.seen)
}
