package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sabo/internal/client/models"
	"github.com/dmitrijs2005/sabo/internal/client/query"
	"github.com/dmitrijs2005/sabo/internal/common"
)

func onlyItem(t *testing.T, env *testEnv) models.Item {
	t.Helper()
	all, err := env.app.items.List(context.Background(), query.All)
	require.NoError(t, err)
	require.Len(t, all, 1)
	return all[0]
}

func TestCaptureNextDone(t *testing.T) {
	ctx := context.Background()
	env := newTestApp(t)

	require.NoError(t, env.app.Capture(ctx, "今日レシート整理しないと"))
	assert.Contains(t, env.out.String(), "Saved [ ]")
	assert.Contains(t, env.out.String(), "今日レシート整理")

	it := onlyItem(t, env)
	assert.Equal(t, models.CategoryWork, it.Category)
	assert.Equal(t, models.ScopeToday, it.Scope)

	env.out.Reset()
	require.NoError(t, env.app.Next(ctx))
	assert.Contains(t, env.out.String(), shortID(it.ID))
	assert.Contains(t, env.out.String(), "> 今日レシート整理しないと")

	env.out.Reset()
	require.NoError(t, env.app.Mark(ctx, "done", shortID(it.ID)))
	assert.Contains(t, env.out.String(), "Done: [x]")

	env.out.Reset()
	require.NoError(t, env.app.Next(ctx))
	assert.Equal(t, "Nothing to do.\n", env.out.String())

	env.out.Reset()
	require.NoError(t, env.app.Review(ctx, ""))
	assert.Contains(t, env.out.String(), "1 completed")
	assert.Contains(t, env.out.String(), "work    1")
}

func TestCapture_EmptyText(t *testing.T) {
	env := newTestApp(t)
	err := env.app.Capture(context.Background(), "   ")
	assert.ErrorIs(t, err, common.ErrEmptyText)
}

func TestList_PresetsAndSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestApp(t)
	require.NoError(t, env.app.Capture(ctx, "今日レシート整理しないと"))
	require.NoError(t, env.app.Capture(ctx, "疲れた"))

	env.out.Reset()
	require.NoError(t, env.app.List(ctx, nil))
	assert.Contains(t, env.out.String(), "all 2 | tasks 1 | done 0")

	env.out.Reset()
	require.NoError(t, env.app.List(ctx, []string{"tasks"}))
	assert.Contains(t, env.out.String(), "レシート")
	assert.NotContains(t, env.out.String(), "疲れた")

	env.out.Reset()
	require.NoError(t, env.app.List(ctx, []string{"done"}))
	assert.Contains(t, env.out.String(), "No items.")

	env.out.Reset()
	require.NoError(t, env.app.List(ctx, []string{"疲れ"}))
	assert.Contains(t, env.out.String(), "疲れた")
	assert.NotContains(t, env.out.String(), "レシート")
}

func TestMarkAndScope(t *testing.T) {
	ctx := context.Background()
	env := newTestApp(t)
	require.NoError(t, env.app.Capture(ctx, "今日レシート整理しないと"))
	id := onlyItem(t, env).ID

	require.NoError(t, env.app.Mark(ctx, "defer", id))
	assert.Equal(t, models.ScopeSomeday, onlyItem(t, env).Scope)

	require.NoError(t, env.app.Mark(ctx, "today", id))
	assert.Equal(t, models.ScopeToday, onlyItem(t, env).Scope)

	require.NoError(t, env.app.SetScope(ctx, id, "this_week"))
	assert.Equal(t, models.ScopeThisWeek, onlyItem(t, env).Scope)

	assert.ErrorContains(t, env.app.SetScope(ctx, id, "tomorrow"), "unknown scope")
	assert.ErrorContains(t, env.app.Mark(ctx, "archive", id), "unknown action")
	assert.ErrorIs(t, env.app.Mark(ctx, "done", "zzzz"), common.ErrNotFound)

	require.NoError(t, env.app.Mark(ctx, "done", id))
	require.NoError(t, env.app.Mark(ctx, "undo", id))
	assert.Equal(t, models.StatusTodo, onlyItem(t, env).Status)

	require.NoError(t, env.app.Mark(ctx, "delete", id))
	all, err := env.app.items.List(ctx, query.All)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReview_Date(t *testing.T) {
	ctx := context.Background()
	env := newTestApp(t)

	require.NoError(t, env.app.Review(ctx, "2024-02-29"))
	assert.Contains(t, env.out.String(), "2024-02-29: 0 completed")

	assert.ErrorContains(t, env.app.Review(ctx, "yesterday"), "bad date")
}

func TestKeyCommands(t *testing.T) {
	ctx := context.Background()
	env := newTestApp(t)

	require.NoError(t, env.app.Key(ctx, nil))
	assert.Contains(t, env.out.String(), "off, using rules")
	assert.Contains(t, env.app.status(), "rules")

	stubSecret(t, " secret-key \n")
	require.NoError(t, env.app.Key(ctx, []string{"set"}))
	got, err := env.app.keys.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", got)
	assert.Contains(t, env.app.status(), "ai")

	env.out.Reset()
	require.NoError(t, env.app.Key(ctx, []string{"status"}))
	assert.Contains(t, env.out.String(), "saved key, model gemini-test")

	require.NoError(t, env.app.Key(ctx, []string{"clear"}))
	assert.False(t, env.app.keys.Has(ctx))

	stubSecret(t, "   ")
	assert.ErrorContains(t, env.app.Key(ctx, []string{"set"}), "empty key")
	assert.ErrorContains(t, env.app.Key(ctx, []string{"rotate"}), "usage")
}

func TestClearAll_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	env := newTestApp(t, "no", "yes")
	require.NoError(t, env.app.Capture(ctx, "疲れた"))

	require.NoError(t, env.app.ClearAll(ctx))
	assert.Contains(t, env.out.String(), "Cancelled.")
	onlyItem(t, env)

	require.NoError(t, env.app.ClearAll(ctx))
	assert.Contains(t, env.out.String(), "All items deleted.")
	counts, err := env.app.items.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.All)
}

func TestSignInSyncSignOut(t *testing.T) {
	ctx := context.Background()
	env := newTestApp(t)

	assert.ErrorIs(t, env.app.Sync(ctx), common.ErrNotSignedIn)

	remote := models.Item{
		ID:        "remote-1",
		RawText:   "新しいアプリのアイデア",
		CreatedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		Category:  models.CategoryIdea,
		Status:    models.StatusTodo,
		Summary:   "新しいアプリのアイデア",
		Scope:     models.ScopeSomeday,
	}
	env.mirror.remote = []models.Item{remote}
	require.NoError(t, env.app.Capture(ctx, "今日レシート整理しないと"))

	stubSecret(t, signedToken(t, "user-1"))
	require.NoError(t, env.app.SignIn(ctx, ""))
	assert.Contains(t, env.out.String(), "Signed in as user-1")
	assert.Contains(t, env.app.status(), "user-1")

	env.out.Reset()
	require.NoError(t, env.app.Sync(ctx))
	assert.Contains(t, env.out.String(), "Synced 2 items.")
	assert.Contains(t, env.out.String(), "Mirror updated")
	assert.Len(t, env.mirror.lastPut(), 2)

	counts, err := env.app.items.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.All)

	require.NoError(t, env.app.SignOut(ctx))
	assert.Contains(t, env.out.String(), "Signed out")
	assert.Equal(t, 1, env.mirror.stopped)
	assert.ErrorIs(t, env.app.Sync(ctx), common.ErrNotSignedIn)

	assert.ErrorIs(t, env.app.SignIn(ctx, "not-a-jwt"), common.ErrInvalidToken)
}
