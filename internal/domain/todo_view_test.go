package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTodo(id, title string, priority TodoPriority, status TodoStatus) *Todo {
	t := &Todo{
		Title:    title,
		Priority: priority,
		Status:   status,
	}
	t.ID = id
	return t
}

func TestFilterAndSortTodos_ConjunctiveFilter(t *testing.T) {
	now := time.Now()
	todos := []*Todo{
		makeTodo("t-1", "High done", TodoPriorityHigh, TodoStatusCompleted),
		makeTodo("t-2", "High open", TodoPriorityHigh, TodoStatusPending),
		makeTodo("t-3", "Low done", TodoPriorityLow, TodoStatusCompleted),
		makeTodo("t-4", "Medium done", TodoPriorityMedium, TodoStatusCompleted),
	}

	// Both predicates must match.
	result := FilterAndSortTodos(todos, TodoFilter{
		Status:   "completed",
		Priority: "high",
	}, TodoSortCreated, now)

	require.Len(t, result, 1)
	assert.Equal(t, "t-1", result[0].ID)
}

func TestFilterAndSortTodos_AllMatchesEverything(t *testing.T) {
	now := time.Now()
	todos := []*Todo{
		makeTodo("t-1", "a", TodoPriorityHigh, TodoStatusCompleted),
		makeTodo("t-2", "b", TodoPriorityLow, TodoStatusPending),
	}

	result := FilterAndSortTodos(todos, TodoFilter{
		Status:   FilterAll,
		Priority: FilterAll,
	}, TodoSortCreated, now)

	assert.Len(t, result, 2)
}

func TestFilterAndSortTodos_OverdueFilterUsesDerivedStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	overdue := makeTodo("t-1", "late", TodoPriorityLow, TodoStatusPending)
	overdue.DueDate = &past
	onTime := makeTodo("t-2", "on time", TodoPriorityLow, TodoStatusPending)
	onTime.DueDate = &future

	result := FilterAndSortTodos([]*Todo{overdue, onTime}, TodoFilter{
		Status: "overdue",
	}, TodoSortCreated, now)

	require.Len(t, result, 1)
	assert.Equal(t, "t-1", result[0].ID)
}

func TestFilterAndSortTodos_SearchMatchesTitleDescriptionAndTags(t *testing.T) {
	now := time.Now()

	byTitle := makeTodo("t-1", "Buy Milk", TodoPriorityLow, TodoStatusPending)
	byDescription := makeTodo("t-2", "Errand", TodoPriorityLow, TodoStatusPending)
	byDescription.Description = "pick up milk at the store"
	byTag := makeTodo("t-3", "Groceries", TodoPriorityLow, TodoStatusPending)
	byTag.Tags = []string{"milk", "bread"}
	noMatch := makeTodo("t-4", "Taxes", TodoPriorityLow, TodoStatusPending)

	result := FilterAndSortTodos([]*Todo{byTitle, byDescription, byTag, noMatch}, TodoFilter{
		Search: "MILK",
	}, TodoSortCreated, now)

	require.Len(t, result, 3)
	ids := []string{result[0].ID, result[1].ID, result[2].ID}
	assert.ElementsMatch(t, []string{"t-1", "t-2", "t-3"}, ids)
}

func TestFilterAndSortTodos_SortByCreatedNewestFirst(t *testing.T) {
	now := time.Now()

	oldest := makeTodo("t-1", "oldest", TodoPriorityLow, TodoStatusPending)
	oldest.CreatedAt = now.Add(-3 * time.Hour)
	middle := makeTodo("t-2", "middle", TodoPriorityLow, TodoStatusPending)
	middle.CreatedAt = now.Add(-2 * time.Hour)
	newest := makeTodo("t-3", "newest", TodoPriorityLow, TodoStatusPending)
	newest.CreatedAt = now.Add(-1 * time.Hour)

	result := FilterAndSortTodos([]*Todo{oldest, newest, middle}, TodoFilter{}, TodoSortCreated, now)

	require.Len(t, result, 3)
	assert.Equal(t, "t-3", result[0].ID)
	assert.Equal(t, "t-2", result[1].ID)
	assert.Equal(t, "t-1", result[2].ID)
}

func TestFilterAndSortTodos_SortByDueDateUndatedLast(t *testing.T) {
	now := time.Now()
	soon := now.Add(time.Hour)
	later := now.Add(48 * time.Hour)

	undatedA := makeTodo("t-1", "undated a", TodoPriorityLow, TodoStatusPending)
	datedLater := makeTodo("t-2", "later", TodoPriorityLow, TodoStatusPending)
	datedLater.DueDate = &later
	undatedB := makeTodo("t-3", "undated b", TodoPriorityLow, TodoStatusPending)
	datedSoon := makeTodo("t-4", "soon", TodoPriorityLow, TodoStatusPending)
	datedSoon.DueDate = &soon

	result := FilterAndSortTodos([]*Todo{undatedA, datedLater, undatedB, datedSoon}, TodoFilter{}, TodoSortDueDate, now)

	require.Len(t, result, 4)
	assert.Equal(t, "t-4", result[0].ID)
	assert.Equal(t, "t-2", result[1].ID)
	// Undated todos come after all dated todos, keeping their relative
	// input order.
	assert.Equal(t, "t-1", result[2].ID)
	assert.Equal(t, "t-3", result[3].ID)
}

func TestFilterAndSortTodos_SortByPriority(t *testing.T) {
	now := time.Now()
	todos := []*Todo{
		makeTodo("t-1", "low", TodoPriorityLow, TodoStatusPending),
		makeTodo("t-2", "high", TodoPriorityHigh, TodoStatusPending),
		makeTodo("t-3", "medium", TodoPriorityMedium, TodoStatusPending),
	}

	result := FilterAndSortTodos(todos, TodoFilter{}, TodoSortPriority, now)

	require.Len(t, result, 3)
	assert.Equal(t, "t-2", result[0].ID)
	assert.Equal(t, "t-3", result[1].ID)
	assert.Equal(t, "t-1", result[2].ID)
}

func TestFilterAndSortTodos_StableOnTies(t *testing.T) {
	now := time.Now()
	todos := []*Todo{
		makeTodo("t-1", "first high", TodoPriorityHigh, TodoStatusPending),
		makeTodo("t-2", "second high", TodoPriorityHigh, TodoStatusPending),
		makeTodo("t-3", "third high", TodoPriorityHigh, TodoStatusPending),
	}

	first := FilterAndSortTodos(todos, TodoFilter{}, TodoSortPriority, now)
	second := FilterAndSortTodos(todos, TodoFilter{}, TodoSortPriority, now)

	// Ties preserve input order, and re-running is idempotent.
	require.Len(t, first, 3)
	assert.Equal(t, "t-1", first[0].ID)
	assert.Equal(t, "t-2", first[1].ID)
	assert.Equal(t, "t-3", first[2].ID)
	assert.Equal(t, first, second)
}

func TestFilterAndSortTodos_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	a := makeTodo("t-1", "a", TodoPriorityLow, TodoStatusPending)
	b := makeTodo("t-2", "b", TodoPriorityHigh, TodoStatusPending)
	input := []*Todo{a, b}

	_ = FilterAndSortTodos(input, TodoFilter{}, TodoSortPriority, now)

	assert.Equal(t, "t-1", input[0].ID)
	assert.Equal(t, "t-2", input[1].ID)
}
