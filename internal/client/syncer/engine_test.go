package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/logging"
)

func TestPullAndMerge_UnionsStoresAndPushes(t *testing.T) {
	store := &memStore{items: []models.Item{mk("A", t0), mk("B", t0)}}
	m := newFakeMirror()
	m.docs["u1"] = []models.Item{mk("B", t0), mk("C", t0)}
	s := NewSession("u1", m, logging.NewNop(), time.Second)
	t.Cleanup(s.Close)

	merged, err := NewEngine(store, logging.NewNop()).PullAndMerge(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids(merged))
	assert.Equal(t, []string{"A", "B", "C"}, ids(store.snapshot()))

	require.NoError(t, s.Flush(context.Background()))
	puts := m.putLog()
	require.Len(t, puts, 1)
	assert.Equal(t, []string{"A", "B", "C"}, ids(puts[0]))
}

func TestPullAndMerge_MissingDocumentPushesLocal(t *testing.T) {
	store := &memStore{items: []models.Item{mk("A", t0)}}
	m := newFakeMirror()
	s := NewSession("u1", m, logging.NewNop(), time.Second)
	t.Cleanup(s.Close)

	_, err := NewEngine(store, logging.NewNop()).PullAndMerge(context.Background(), s)
	require.NoError(t, err)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []string{"A"}, ids(m.docs["u1"]))
}

func TestPullAndMerge_FetchErrorLeavesLocal(t *testing.T) {
	store := &memStore{items: []models.Item{mk("A", t0)}}
	m := newFakeMirror()
	m.fetchErr = errors.New("offline")
	s := NewSession("u1", m, logging.NewNop(), time.Second)
	t.Cleanup(s.Close)

	_, err := NewEngine(store, logging.NewNop()).PullAndMerge(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, []string{"A"}, ids(store.snapshot()))
	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, m.putLog())
}

func TestPullAndMerge_ClosedSession(t *testing.T) {
	e := NewEngine(&memStore{}, logging.NewNop())
	_, err := e.PullAndMerge(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

// Deleting locally and then pulling from a mirror that still holds the
// item brings it back: deletions are not tracked.
func TestPullAndMerge_DeleteThenPullResurrects(t *testing.T) {
	a, b := mk("A", t0), mk("B", t0)
	store := &memStore{items: []models.Item{a, b}}
	m := newFakeMirror()
	m.docs["u1"] = []models.Item{a, b}
	s := NewSession("u1", m, logging.NewNop(), time.Second)
	t.Cleanup(s.Close)

	_, err := store.Update(context.Background(), func(cur []models.Item) ([]models.Item, error) {
		return cur[1:], nil
	})
	require.NoError(t, err)

	merged, err := NewEngine(store, logging.NewNop()).PullAndMerge(context.Background(), s)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, ids(merged))
}

func TestWatch_MergesSnapshotsAndPushesOnlyOnDifference(t *testing.T) {
	store := &memStore{items: []models.Item{mk("A", t0)}}
	m := newFakeMirror()
	s := NewSession("u1", m, logging.NewNop(), time.Second)
	t.Cleanup(s.Close)

	var seen [][]models.Item
	stop, err := NewEngine(store, logging.NewNop()).Watch(context.Background(), s, func(items []models.Item) {
		seen = append(seen, items)
	})
	require.NoError(t, err)

	// Remote lacks A: merged differs, so it is pushed back.
	require.True(t, m.emit("u1", []models.Item{mk("B", t0)}))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, []string{"A", "B"}, ids(store.snapshot()))
	require.Len(t, m.putLog(), 1)

	// Remote equals local: nothing to push.
	require.True(t, m.emit("u1", []models.Item{mk("B", t0), mk("A", t0)}))
	require.NoError(t, s.Flush(context.Background()))
	assert.Len(t, m.putLog(), 1)
	assert.Len(t, seen, 2)

	stop()
	assert.False(t, m.emit("u1", nil))
}

func TestWatch_StoreErrorIsLogged(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	m := newFakeMirror()
	s := NewSession("u1", m, logging.NewNop(), time.Second)
	t.Cleanup(s.Close)

	called := false
	_, err := NewEngine(store, logging.NewNop()).Watch(context.Background(), s, func([]models.Item) { called = true })
	require.NoError(t, err)
	m.emit("u1", []models.Item{mk("B", t0)})
	require.NoError(t, s.Flush(context.Background()))
	assert.False(t, called)
	assert.Empty(t, m.putLog())
}
