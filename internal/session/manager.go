package session

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"

	"github.com/kazz187/agentboard/internal/agent"
	"github.com/kazz187/agentboard/internal/eventbus"
	"github.com/kazz187/agentboard/internal/metrics"
	"github.com/kazz187/agentboard/internal/task"
)

// Manager owns one Session per user and drops sessions idle for longer than
// the configured TTL.
type Manager struct {
	deps  deps
	cache *cache.Cache
	mu    sync.Mutex
}

type Option func(*deps)

func WithClock(now func() time.Time) Option {
	return func(d *deps) {
		d.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(d *deps) {
		d.newID = newID
	}
}

func NewManager(tasks task.Repository, agents agent.Repository, bus *eventbus.Bus, idleTTL time.Duration, opts ...Option) *Manager {
	d := deps{
		tasks:  tasks,
		agents: agents,
		bus:    bus,
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(&d)
	}
	m := &Manager{
		deps:  d,
		cache: cache.New(idleTTL, max(idleTTL/2, time.Minute)),
	}
	m.cache.OnEvicted(func(string, any) {
		metrics.ActiveSessions.Set(float64(m.Len()))
	})
	return m
}

// Get returns the session of userID, creating it on first use. An empty
// userID yields a fresh unauthenticated session that is never cached.
func (m *Manager) Get(userID string) *Session {
	if userID == "" {
		return newSession("", m.deps)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.cache.Get(userID); ok {
		s := v.(*Session)
		// go-cache has no sliding expiry; re-setting restarts the idle clock.
		m.cache.SetDefault(userID, s)
		return s
	}
	s := newSession(userID, m.deps)
	m.cache.SetDefault(userID, s)
	metrics.ActiveSessions.Set(float64(m.Len()))
	return s
}

// Invalidate marks a cached session stale so its next use reloads from the
// backend. It reports whether the user had a session.
func (m *Manager) Invalidate(userID string) bool {
	v, ok := m.cache.Get(userID)
	if !ok {
		return false
	}
	v.(*Session).Invalidate()
	if m.deps.bus != nil {
		m.deps.bus.PublishNew(eventbus.BoardReloaded, userID, "")
	}
	return true
}

// Drop forgets the session, e.g. on sign-out.
func (m *Manager) Drop(userID string) {
	m.cache.Delete(userID)
}

func (m *Manager) Len() int {
	return m.cache.ItemCount()
}
