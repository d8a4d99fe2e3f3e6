package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/agentboard/internal/metrics"
)

type Type string

const (
	TaskCreated  Type = "task.created"
	TaskUpdated  Type = "task.updated"
	TaskDeleted  Type = "task.deleted"
	AgentCreated Type = "agent.created"
	AgentUpdated Type = "agent.updated"
	AgentDeleted Type = "agent.deleted"
	// BoardReloaded is published when a user's collections were reloaded
	// from storage after an outside change.
	BoardReloaded Type = "board.reloaded"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	UserID     string    `json:"-"`
	ResourceID string    `json:"resourceId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
			metrics.EventsDropped.Inc()
		}
	}
}

func (b *Bus) PublishNew(eventType Type, userID, resourceID string) {
	b.Publish(&Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		UserID:     userID,
		ResourceID: resourceID,
		CreatedAt:  time.Now(),
	})
}
