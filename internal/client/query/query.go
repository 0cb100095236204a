// Package query derives views from an item collection. Every function is
// pure and leaves its input untouched.
package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

// NextTask returns the first actionable todo item, looking at today, then
// this_week, then someday. Within a scope collection order wins.
func NextTask(items []models.Item) (models.Item, bool) {
	for _, scope := range models.Scopes {
		for _, it := range items {
			if it.Category.Actionable() && it.Status == models.StatusTodo && it.Scope == scope {
				return it, true
			}
		}
	}
	return models.Item{}, false
}

// CompletedOn returns the done items whose completion date is the calendar
// day of date, compared in date's location.
func CompletedOn(items []models.Item, date time.Time) []models.Item {
	y, m, d := date.Date()
	loc := date.Location()
	var out []models.Item
	for _, it := range items {
		if it.Status != models.StatusDone {
			continue
		}
		cy, cm, cd := it.CompletionTime().In(loc).Date()
		if cy == y && cm == m && cd == d {
			out = append(out, it)
		}
	}
	return out
}

type Stats struct {
	Total      int
	ByCategory map[models.Category]int
}

// StatsFor summarises CompletedOn(items, date).
func StatsFor(items []models.Item, date time.Time) Stats {
	done := CompletedOn(items, date)
	s := Stats{Total: len(done), ByCategory: make(map[models.Category]int)}
	for _, it := range done {
		s.ByCategory[it.Category]++
	}
	return s
}

// Filter selects items for the list view. Zero-valued fields match
// everything; set fields are combined with AND.
type Filter struct {
	Categories     []models.Category
	Status         models.Status
	ActionableOnly bool
	// Search is a case-insensitive substring of summary or rawText.
	Search string
}

func (f Filter) Match(it models.Item) bool {
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, it.Category) {
		return false
	}
	if f.Status != "" && it.Status != f.Status {
		return false
	}
	if f.ActionableOnly && !it.Category.Actionable() {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(it.Summary), q) &&
			!strings.Contains(strings.ToLower(it.RawText), q) {
			return false
		}
	}
	return true
}

func (f Filter) Apply(items []models.Item) []models.Item {
	var out []models.Item
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

// Preset filters of the list view.
var (
	All   = Filter{}
	Tasks = Filter{ActionableOnly: true, Status: models.StatusTodo}
	Done  = Filter{Status: models.StatusDone}
)

// SortByCreatedDesc returns a copy ordered newest first. Equal timestamps
// keep their collection order.
func SortByCreatedDesc(items []models.Item) []models.Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b models.Item) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out
}

// Counts are the badge numbers of the list view.
type Counts struct {
	All   int
	Tasks int
	Done  int
}

func CountAll(items []models.Item) Counts {
	c := Counts{All: len(items)}
	for _, it := range items {
		if Tasks.Match(it) {
			c.Tasks++
		}
		if Done.Match(it) {
			c.Done++
		}
	}
	return c
}
