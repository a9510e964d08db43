package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/pollstr/internal/core/ports"
)

// Broker fans session events out to in-process subscribers, keyed by user.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uuid.UUID]map[uint64]func(ports.SessionEvent)
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[uuid.UUID]map[uint64]func(ports.SessionEvent)),
	}
}

func (b *Broker) Subscribe(userID uuid.UUID, fn func(ports.SessionEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	userSubs := b.subs[userID]
	if userSubs == nil {
		userSubs = make(map[uint64]func(ports.SessionEvent))
		b.subs[userID] = userSubs
	}
	userSubs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
		})
	}
}

// Publish delivers the event synchronously. Subscribers must not block.
func (b *Broker) Publish(_ context.Context, event ports.SessionEvent) {
	b.mu.RLock()
	fns := make([]func(ports.SessionEvent), 0, len(b.subs[event.UserID]))
	for _, fn := range b.subs[event.UserID] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

func (b *Broker) subscriberCount(userID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
