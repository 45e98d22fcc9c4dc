package domain

import "time"

// TodoPriority represents the urgency of a todo.
type TodoPriority string

const (
	TodoPriorityLow    TodoPriority = "low"
	TodoPriorityMedium TodoPriority = "medium"
	TodoPriorityHigh   TodoPriority = "high"
)

// Valid returns true if the priority is one of the known values.
func (p TodoPriority) Valid() bool {
	switch p {
	case TodoPriorityLow, TodoPriorityMedium, TodoPriorityHigh:
		return true
	}
	return false
}

// Rank returns the sort rank for the priority, high first.
// Unknown priorities sort last.
func (p TodoPriority) Rank() int {
	switch p {
	case TodoPriorityHigh:
		return 0
	case TodoPriorityMedium:
		return 1
	case TodoPriorityLow:
		return 2
	}
	return 3
}

// TodoStatus represents the state of a todo.
// Only pending and completed are ever persisted; overdue is derived at
// read time from the due date and never written back.
type TodoStatus string

const (
	TodoStatusPending   TodoStatus = "pending"
	TodoStatusCompleted TodoStatus = "completed"
	TodoStatusOverdue   TodoStatus = "overdue"
)

// Subtask represents a checklist entry nested inside a todo.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Todo represents a personal task record owned by a single user.
type Todo struct {
	Syncable
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TodoPriority `json:"priority"`
	Status      TodoStatus   `json:"status"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Tags        []string     `json:"tags"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
}

// DeriveStatus computes the display status for the todo at the given
// instant. Completed todos stay completed. A pending todo with a due
// date strictly before now shows as overdue. The result is for display
// only and must not be persisted.
func (t *Todo) DeriveStatus(now time.Time) TodoStatus {
	if t.Status == TodoStatusCompleted {
		return TodoStatusCompleted
	}
	if t.DueDate != nil && t.DueDate.Before(now) {
		return TodoStatusOverdue
	}
	return TodoStatusPending
}

// ToggledStatus returns the persisted status the todo should move to
// when the user toggles it. Completed flips back to pending; anything
// else (pending, or pending showing as overdue) moves to completed.
func (t *Todo) ToggledStatus() TodoStatus {
	if t.Status == TodoStatusCompleted {
		return TodoStatusPending
	}
	return TodoStatusCompleted
}

// SubtaskProgress returns how many subtasks are done out of the total.
func (t *Todo) SubtaskProgress() (done, total int) {
	for _, st := range t.Subtasks {
		if st.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}
