// Package broker fans document changes out to Watch streams. Local
// delivers within one process; Redis extends it across server instances.
package broker

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Event announces a new version of a user's document.
type Event struct {
	UserID    string          `json:"userId"`
	Items     json.RawMessage `json:"items"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Broker interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events for userID. Only the newest
	// undelivered event is kept for a slow subscriber. cancel closes the
	// channel.
	Subscribe(userID string) (events <-chan Event, cancel func())
	Close() error
}

// ForeignNotifier is implemented by brokers that also carry changes made
// by other server instances.
type ForeignNotifier interface {
	OnForeign(fn func(Event))
}

type Local struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
	closed bool
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[int]chan Event)}
}

func (b *Local) Publish(_ context.Context, ev Event) error {
	b.deliver(ev)
	return nil
}

func (b *Local) deliver(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.UserID] {
		select {
		case ch <- ev:
			continue
		default:
		}
		// Replace the stale pending event.
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}
}

func (b *Local) Subscribe(userID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]chan Event)
	}
	b.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[userID]; ok {
				if _, ok := subs[id]; ok {
					delete(subs, id)
					close(ch)
				}
				if len(subs) == 0 {
					delete(b.subs, userID)
				}
			}
		})
	}
}

// Subscribers reports how many channels listen for userID.
func (b *Local) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// Close closes every subscriber channel.
func (b *Local) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for user, subs := range b.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subs, user)
	}
	return nil
}
