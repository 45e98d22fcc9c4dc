package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodo_DeriveStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		status   TodoStatus
		dueDate  *time.Time
		expected TodoStatus
	}{
		{"pending with no due date", TodoStatusPending, nil, TodoStatusPending},
		{"pending with future due date", TodoStatusPending, &future, TodoStatusPending},
		{"pending with past due date", TodoStatusPending, &past, TodoStatusOverdue},
		{"pending due exactly now", TodoStatusPending, &now, TodoStatusPending},
		{"completed with no due date", TodoStatusCompleted, nil, TodoStatusCompleted},
		{"completed with past due date", TodoStatusCompleted, &past, TodoStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo := &Todo{Status: tt.status, DueDate: tt.dueDate}
			assert.Equal(t, tt.expected, todo.DeriveStatus(now))
		})
	}
}

func TestTodo_DeriveStatus_NeverMutates(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	todo := &Todo{Status: TodoStatusPending, DueDate: &past}

	derived := todo.DeriveStatus(now)
	assert.Equal(t, TodoStatusOverdue, derived)

	// The persisted field stays pending.
	assert.Equal(t, TodoStatusPending, todo.Status)
}

func TestTodo_ToggledStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   TodoStatus
		expected TodoStatus
	}{
		{"pending flips to completed", TodoStatusPending, TodoStatusCompleted},
		{"completed flips to pending", TodoStatusCompleted, TodoStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo := &Todo{Status: tt.status}
			assert.Equal(t, tt.expected, todo.ToggledStatus())
		})
	}
}

func TestTodo_ToggledStatus_OverdueCompletes(t *testing.T) {
	// An overdue todo is persisted as pending; toggling it must land on
	// completed, never back on pending.
	now := time.Now()
	past := now.Add(-time.Hour)
	todo := &Todo{Status: TodoStatusPending, DueDate: &past}

	assert.Equal(t, TodoStatusOverdue, todo.DeriveStatus(now))
	assert.Equal(t, TodoStatusCompleted, todo.ToggledStatus())
}

func TestTodo_SubtaskProgress(t *testing.T) {
	todo := &Todo{
		Subtasks: []Subtask{
			{ID: "st-1", Title: "one", Completed: true},
			{ID: "st-2", Title: "two", Completed: false},
			{ID: "st-3", Title: "three", Completed: true},
		},
	}

	done, total := todo.SubtaskProgress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)
}

func TestTodoPriority_Rank(t *testing.T) {
	assert.Less(t, TodoPriorityHigh.Rank(), TodoPriorityMedium.Rank())
	assert.Less(t, TodoPriorityMedium.Rank(), TodoPriorityLow.Rank())
	assert.Greater(t, TodoPriority("bogus").Rank(), TodoPriorityLow.Rank())
}

func TestTodoPriority_Valid(t *testing.T) {
	assert.True(t, TodoPriorityLow.Valid())
	assert.True(t, TodoPriorityMedium.Valid())
	assert.True(t, TodoPriorityHigh.Valid())
	assert.False(t, TodoPriority("urgent").Valid())
	assert.False(t, TodoPriority("").Valid())
}
