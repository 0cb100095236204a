// Package models defines the captured item and its enumerations.
package models

import (
	"slices"
	"time"
)

// Category classifies what a note is about.
type Category string

const (
	CategoryWork    Category = "work"
	CategoryIdea    Category = "idea"
	CategoryLife    Category = "life"
	CategoryEmotion Category = "emotion"
	CategoryMind    Category = "mind"
	CategorySystem  Category = "system"
	CategoryOther   Category = "other"

	// legacyCategoryTask is the pre-2.0 name of CategoryWork.
	legacyCategoryTask Category = "task"
)

// Categories lists every category in classifier precedence order.
var Categories = []Category{
	CategoryWork, CategoryIdea, CategoryLife, CategoryEmotion,
	CategoryMind, CategorySystem, CategoryOther,
}

func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// Actionable reports whether items of this category take part in task
// selection and task filtering.
func (c Category) Actionable() bool {
	return c == CategoryWork || c == CategoryIdea || c == CategoryMind
}

// MigrateCategory maps any stored category onto the current taxonomy:
// "task" becomes work, unknown values become other.
func MigrateCategory(c Category) Category {
	switch {
	case c == legacyCategoryTask:
		return CategoryWork
	case c.Valid():
		return c
	default:
		return CategoryOther
	}
}

type Status string

const (
	StatusTodo Status = "todo"
	StatusDone Status = "done"
)

func (s Status) Valid() bool { return s == StatusTodo || s == StatusDone }

// Scope is the time horizon of a task.
type Scope string

const (
	ScopeToday    Scope = "today"
	ScopeThisWeek Scope = "this_week"
	ScopeSomeday  Scope = "someday"
)

// Scopes lists scopes in task priority order.
var Scopes = []Scope{ScopeToday, ScopeThisWeek, ScopeSomeday}

func (s Scope) Valid() bool { return slices.Contains(Scopes, s) }

// Item is the only persisted entity. Its JSON form is shared by the local
// store and the remote mirror document.
type Item struct {
	ID          string     `json:"id"`
	RawText     string     `json:"rawText"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Category    Category   `json:"category"`
	Status      Status     `json:"status"`
	Summary     string     `json:"summary"`
	Scope       Scope      `json:"scope"`
	Detail      string     `json:"detail,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	AIProcessed bool       `json:"aiProcessed,omitempty"`
}

// Draft is an item before it has been given an id.
type Draft struct {
	RawText     string
	CreatedAt   time.Time
	Category    Category
	Status      Status
	Summary     string
	Scope       Scope
	Detail      string
	Tags        []string
	AIProcessed bool
}

// WithID turns the draft into an Item.
func (d Draft) WithID(id string) Item {
	return Item{
		ID:          id,
		RawText:     d.RawText,
		CreatedAt:   d.CreatedAt,
		Category:    d.Category,
		Status:      d.Status,
		Summary:     d.Summary,
		Scope:       d.Scope,
		Detail:      d.Detail,
		Tags:        slices.Clone(d.Tags),
		AIProcessed: d.AIProcessed,
	}
}

// CompletionTime is the time used to bucket a done item by date:
// CompletedAt when present, CreatedAt otherwise.
func (i Item) CompletionTime() time.Time {
	if i.CompletedAt != nil {
		return *i.CompletedAt
	}
	return i.CreatedAt
}

// Complete marks the item done at t.
func (i *Item) Complete(t time.Time) {
	i.Status = StatusDone
	i.CompletedAt = &t
}

// Reopen reverts the item to todo and clears its completion time.
func (i *Item) Reopen() {
	i.Status = StatusTodo
	i.CompletedAt = nil
}

// Normalize repairs values written by older versions or other writers.
func (i *Item) Normalize() {
	i.Category = MigrateCategory(i.Category)
	if !i.Status.Valid() {
		i.Status = StatusTodo
	}
	if !i.Scope.Valid() {
		i.Scope = ScopeSomeday
	}
	if i.Status == StatusTodo {
		i.CompletedAt = nil
	}
}

// Clone returns a deep copy.
func (i Item) Clone() Item {
	c := i
	if i.CompletedAt != nil {
		t := *i.CompletedAt
		c.CompletedAt = &t
	}
	c.Tags = slices.Clone(i.Tags)
	return c
}

// CloneAll deep-copies a collection.
func CloneAll(items []Item) []Item {
	out := make([]Item, len(items))
	for n, it := range items {
		out[n] = it.Clone()
	}
	return out
}
