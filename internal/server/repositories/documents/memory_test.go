package documents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sabo/internal/common"
)

// exerciseRepository checks the Repository contract shared by all backends.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1")
	require.ErrorIs(t, err, common.ErrNotFound)

	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	doc, err := repo.Put(ctx, "u1", json.RawMessage(`[{"id":"a"}]`), t1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, "u1", doc.UserID)

	t2 := t1.Add(time.Hour)
	doc, err = repo.Put(ctx, "u1", json.RawMessage(`[]`), t2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got.Items))
	assert.True(t, got.UpdatedAt.Equal(t2))
	assert.Equal(t, int64(2), got.Version)

	_, err = repo.Get(ctx, "u2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	items := json.RawMessage(`["x"]`)
	doc, err := repo.Put(ctx, "u", items, time.Now())
	require.NoError(t, err)
	items[1] = 'y'
	doc.Items[1] = 'z'

	got, err := repo.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, string(got.Items))
}
