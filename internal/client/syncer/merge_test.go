package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func mk(id string, created time.Time) models.Item {
	return models.Item{
		ID: id, RawText: id, Summary: id, CreatedAt: created,
		Category: models.CategoryWork, Status: models.StatusTodo, Scope: models.ScopeToday,
	}
}

func ids(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestMerge_Union(t *testing.T) {
	a, b, c := mk("A", t0), mk("B", t0), mk("C", t0)
	got := Merge([]models.Item{a, b}, []models.Item{b, c})
	assert.Equal(t, []string{"A", "B", "C"}, ids(got))
}

func TestMerge_Idempotent(t *testing.T) {
	x := []models.Item{mk("A", t0), mk("B", t0.Add(time.Minute))}
	once := Merge(x, x)
	assert.True(t, SameSet(x, once))
	assert.Equal(t, once, Merge(once, x))
	assert.Equal(t, once, Merge(once, once))
}

func TestMerge_NewerCreatedAtWins(t *testing.T) {
	local := mk("A", t0)
	local.Summary = "local"
	remote := mk("A", t0.Add(time.Second))
	remote.Summary = "remote"

	got := Merge([]models.Item{local}, []models.Item{remote})
	assert.Equal(t, "remote", got[0].Summary)

	got = Merge([]models.Item{remote}, []models.Item{local})
	assert.Equal(t, "remote", got[0].Summary)
}

func TestMerge_TieKeepsLocal(t *testing.T) {
	local := mk("A", t0)
	local.Status = models.StatusDone
	remote := mk("A", t0)

	got := Merge([]models.Item{local}, []models.Item{remote})
	assert.Equal(t, models.StatusDone, got[0].Status)
}

func TestMerge_CommutativeAsSet(t *testing.T) {
	l := []models.Item{mk("A", t0), mk("B", t0)}
	r := []models.Item{mk("C", t0), mk("B", t0), mk("D", t0)}
	assert.True(t, SameSet(Merge(l, r), Merge(r, l)))
}

func TestMerge_MigratesLegacyCategory(t *testing.T) {
	legacy := mk("A", t0)
	legacy.Category = "task"
	got := Merge(nil, []models.Item{legacy})
	assert.Equal(t, models.CategoryWork, got[0].Category)
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	in := mk("A", t0)
	in.Tags = []string{"x"}
	got := Merge([]models.Item{in}, nil)
	got[0].Tags[0] = "y"
	assert.Equal(t, "x", in.Tags[0])
}

func TestSameSet(t *testing.T) {
	a, b := mk("A", t0), mk("B", t0)
	assert.True(t, SameSet([]models.Item{a, b}, []models.Item{b, a}))
	assert.False(t, SameSet([]models.Item{a}, []models.Item{a, b}))

	done := a
	done.Complete(t0.Add(time.Hour))
	assert.False(t, SameSet([]models.Item{a}, []models.Item{done}))
	assert.False(t, SameSet([]models.Item{a, a}, []models.Item{a, b}))
}
