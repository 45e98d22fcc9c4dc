package domain

import (
	"slices"
	"strings"
	"time"
)

// TodoSortKey selects the comparator used to order a todo list.
type TodoSortKey string

const (
	// TodoSortCreated orders by creation time, newest first.
	TodoSortCreated TodoSortKey = "created"
	// TodoSortDueDate orders by due date ascending, undated todos last.
	TodoSortDueDate TodoSortKey = "due_date"
	// TodoSortPriority orders by priority, high before medium before low.
	TodoSortPriority TodoSortKey = "priority"
)

// FilterAll matches every value for a status or priority filter.
const FilterAll = "all"

// TodoFilter narrows a todo list. All populated predicates must match
// for a todo to be retained.
type TodoFilter struct {
	Status   string // Derived status to match, or "all"
	Priority string // Priority to match, or "all"
	Search   string // Case-insensitive substring over title, description, and tags
}

// Matches reports whether the todo passes every predicate in the filter.
// Status is compared against the derived status at the given instant, so
// an overdue filter finds pending todos whose due date has passed.
func (f TodoFilter) Matches(t *Todo, now time.Time) bool {
	if f.Status != "" && f.Status != FilterAll {
		if string(t.DeriveStatus(now)) != f.Status {
			return false
		}
	}
	if f.Priority != "" && f.Priority != FilterAll {
		if string(t.Priority) != f.Priority {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !matchesSearch(t, q) {
			return false
		}
	}
	return true
}

func matchesSearch(t *Todo, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), query) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// FilterAndSortTodos returns the todos that pass the filter, ordered by
// the sort key. The input slice is not modified. The sort is stable, so
// calling again with identical inputs yields an identical sequence and
// ties keep their original relative order.
func FilterAndSortTodos(todos []*Todo, filter TodoFilter, sortKey TodoSortKey, now time.Time) []*Todo {
	result := make([]*Todo, 0, len(todos))
	for _, t := range todos {
		if filter.Matches(t, now) {
			result = append(result, t)
		}
	}

	switch sortKey {
	case TodoSortDueDate:
		slices.SortStableFunc(result, compareByDueDate)
	case TodoSortPriority:
		slices.SortStableFunc(result, compareByPriority)
	default:
		slices.SortStableFunc(result, compareByCreated)
	}

	return result
}

// compareByCreated orders newest first.
func compareByCreated(a, b *Todo) int {
	return b.CreatedAt.Compare(a.CreatedAt)
}

// compareByDueDate orders earliest due first. Todos with no due date
// sort after every dated todo.
func compareByDueDate(a, b *Todo) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

// compareByPriority orders by fixed rank, high(0) before medium(1)
// before low(2).
func compareByPriority(a, b *Todo) int {
	return a.Priority.Rank() - b.Priority.Rank()
}
