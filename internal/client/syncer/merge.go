package syncer

import (
	"slices"

	"github.com/dmitrijs2005/sabo/internal/client/models"
)

// Merge unions local and remote by id. For an id on both sides the copy
// with the strictly greater CreatedAt is kept; ties keep the local copy.
// The result lists local ids in local order followed by remote-only ids in
// remote order. Categories are migrated on the way in.
func Merge(local, remote []models.Item) []models.Item {
	out := make([]models.Item, 0, len(local)+len(remote))
	index := make(map[string]int, len(local)+len(remote))

	add := func(it models.Item) {
		it = it.Clone()
		it.Category = models.MigrateCategory(it.Category)
		if n, ok := index[it.ID]; ok {
			if it.CreatedAt.After(out[n].CreatedAt) {
				out[n] = it
			}
			return
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}

	for _, it := range local {
		add(it)
	}
	for _, it := range remote {
		add(it)
	}
	return out
}

// SameSet reports whether a and b hold the same items keyed by id,
// regardless of order.
func SameSet(a, b []models.Item) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]models.Item, len(a))
	for _, it := range a {
		byID[it.ID] = it
	}
	if len(byID) != len(b) {
		return false
	}
	for _, it := range b {
		other, ok := byID[it.ID]
		if !ok || !sameItem(it, other) {
			return false
		}
	}
	return true
}

func sameItem(a, b models.Item) bool {
	if (a.CompletedAt == nil) != (b.CompletedAt == nil) {
		return false
	}
	if a.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt) {
		return false
	}
	return a.ID == b.ID &&
		a.RawText == b.RawText &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.Category == b.Category &&
		a.Status == b.Status &&
		a.Summary == b.Summary &&
		a.Scope == b.Scope &&
		a.Detail == b.Detail &&
		slices.Equal(a.Tags, b.Tags) &&
		a.AIProcessed == b.AIProcessed
}
