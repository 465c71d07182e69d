// Package notify carries sync events between dashboard sessions. A
// confirmed verification published by one session reaches every other
// subscribed session, possibly more than once; receivers merge
// idempotently.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesops-backend/internal/models"
	"salesops-backend/internal/timeutil"
)

// TypeVerifiedConfirmed is published when a verification gets its
// completion timestamp.
const TypeVerifiedConfirmed = "verified:confirmed"

// Event is one sync message. Row is the full resulting order row.
type Event struct {
	ID   string           `json:"id"`
	Type string           `json:"type"`
	Key  string           `json:"key"`
	Row  *models.OrderRow `json:"row,omitempty"`
	At   time.Time        `json:"at"`
}

// VerifiedConfirmed builds the event for a confirmed row.
func VerifiedConfirmed(key string, row *models.OrderRow) Event {
	if key == "" && row != nil {
		key = row.EnsureKey()
	}
	return Event{
		ID:   uuid.NewString(),
		Type: TypeVerifiedConfirmed,
		Key:  key,
		Row:  row,
		At:   timeutil.Now(),
	}
}

type Handler func(Event)

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber registers a handler and returns the function that removes it.
type Subscriber interface {
	Subscribe(h Handler) (unsubscribe func())
}

type Notifier interface {
	Publisher
	Subscriber
}

var (
	_ Notifier = (*Bus)(nil)
	_ Notifier = (*RedisNotifier)(nil)
)

// Bus is an in-process notifier. Handlers run synchronously on the
// publishing goroutine.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
	return nil
}

func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
