package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

type memStore struct {
	mu    sync.Mutex
	items []models.Item
	err   error
}

func (m *memStore) Update(_ context.Context, fn func([]models.Item) ([]models.Item, error)) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	next, err := fn(models.CloneAll(m.items))
	if err != nil {
		return nil, err
	}
	m.items = next
	return models.CloneAll(next), nil
}

func (m *memStore) snapshot() []models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneAll(m.items)
}

type fakeMirror struct {
	mu       sync.Mutex
	docs     map[string][]models.Item
	puts     [][]models.Item
	putErr   error
	fetchErr error
	block    chan struct{} // when set, PutDocument waits on it or ctx
	watchers map[string]func([]models.Item)
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{docs: map[string][]models.Item{}, watchers: map[string]func([]models.Item){}}
}

func (f *fakeMirror) FetchDocument(_ context.Context, userID string) ([]models.Item, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, false, f.fetchErr
	}
	items, ok := f.docs[userID]
	return models.CloneAll(items), ok, nil
}

func (f *fakeMirror) PutDocument(ctx context.Context, userID string, items []models.Item) (time.Time, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, models.CloneAll(items))
	if f.putErr != nil {
		return time.Time{}, f.putErr
	}
	f.docs[userID] = models.CloneAll(items)
	return time.Date(2026, 1, 1, 0, 0, len(f.puts), 0, time.UTC), nil
}

func (f *fakeMirror) WatchDocument(_ context.Context, userID string, fn func([]models.Item)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchers[userID] = fn
	return func() {
		f.mu.Lock()
		delete(f.watchers, userID)
		f.mu.Unlock()
	}, nil
}

// emit delivers a remote snapshot to the watcher of userID, if any.
func (f *fakeMirror) emit(userID string, items []models.Item) bool {
	f.mu.Lock()
	fn := f.watchers[userID]
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(items)
	return true
}

func (f *fakeMirror) putLog() [][]models.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]models.Item, len(f.puts))
	copy(out, f.puts)
	return out
}
