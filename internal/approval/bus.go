package approval

import (
	"sync"

	"go.uber.org/zap"
)

// EventKind identifies a lifecycle transition on the queue.
type EventKind string

const (
	EventAdded    EventKind = "added"
	EventApproved EventKind = "approved"
	EventRejected EventKind = "rejected"
	EventExpired  EventKind = "expired"
)

// Event announces a lifecycle transition. Response is set only for
// EventApproved and carries the final text to deliver.
type Event struct {
	Kind     EventKind `json:"kind"`
	ID       string    `json:"id"`
	Response string    `json:"response,omitempty"`
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this loses events (logged), never blocks the
// queue.
const subscriberBuffer = 64

// Bus fans lifecycle events out to subscribers.
//
// Publish order matches the order of the state transitions; delivery is
// asynchronous with respect to the triggering call's return.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	logger *zap.Logger
}

// NewBus creates an event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the subscriber is done; it closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("dropping approval event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("kind", string(e.Kind)),
				zap.String("approval_id", e.ID),
			)
		}
	}
}
