package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	domainerrors "github.com/cartboardapp/cartboard-server/internal/errors"
	"github.com/cartboardapp/cartboard-server/internal/store"
	"github.com/cartboardapp/cartboard-server/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTodoTest creates a todo service with temporary storage for testing.
func setupTodoTest(t *testing.T) (*TodoService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "cartboard-todo-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "data"), nil)
	require.NoError(t, err)

	activities, err := sqlite.Open(filepath.Join(tmpDir, "activities.db"), nil)
	require.NoError(t, err)

	activityService := NewActivityService(activities, nil)
	todoService := NewTodoService(s, activityService, nil, nil)

	cleanup := func() {
		_ = s.Close()
		_ = activities.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return todoService, cleanup
}

func TestTodoService_AddTodo_Defaults(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	created, err := todoService.AddTodo(ctx, alice, AddTodoRequest{
		Title:    "Buy milk",
		Priority: "high",
	})
	require.NoError(t, err)

	// Immediate readback reflects the creation defaults.
	got, err := todoService.GetTodo(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusPending, got.Status)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt), "created and updated timestamps must match on creation")
	assert.Equal(t, []string{}, got.Tags)
	assert.Equal(t, domain.TodoPriorityHigh, got.Priority)
	assert.Equal(t, alice.ID, got.UserID)
}

func TestTodoService_AddTodo_TitleRequired(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	_, err := todoService.AddTodo(context.Background(), makeUser("user-alice", "Alice"), AddTodoRequest{})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestTodoService_UpdateTodo_MergePatch(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	created, err := todoService.AddTodo(ctx, alice, AddTodoRequest{
		Title:       "Buy milk",
		Description: "Whole milk",
		Priority:    "low",
	})
	require.NoError(t, err)

	newTitle := "Buy oat milk"
	updated, err := todoService.UpdateTodo(ctx, alice, created.ID, UpdateTodoRequest{
		Title: &newTitle,
	})
	require.NoError(t, err)

	// Only the named field changed; the rest survived the patch.
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Equal(t, "Whole milk", updated.Description)
	assert.Equal(t, domain.TodoPriorityLow, updated.Priority)
	assert.Equal(t, domain.TodoStatusPending, updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestTodoService_UpdateTodo_NotFound(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	title := "anything"
	_, err := todoService.UpdateTodo(context.Background(), makeUser("user-alice", "Alice"), "todo-ghost", UpdateTodoRequest{Title: &title})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestTodoService_ToggleTodoStatus(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	created, err := todoService.AddTodo(ctx, alice, AddTodoRequest{Title: "Buy milk"})
	require.NoError(t, err)

	toggled, err := todoService.ToggleTodoStatus(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusCompleted, toggled.Status)

	toggled, err = todoService.ToggleTodoStatus(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusPending, toggled.Status)
}

func TestTodoService_ToggleTodoStatus_Overdue(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	// A pending todo past its due date shows as overdue.
	due := time.Now().Add(-24 * time.Hour)
	created, err := todoService.AddTodo(ctx, alice, AddTodoRequest{
		Title:   "File taxes",
		DueDate: &due,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusOverdue, created.DeriveStatus(time.Now()))

	// Toggling an overdue todo completes it; it never bounces back to
	// pending because the persisted status was pending all along.
	toggled, err := todoService.ToggleTodoStatus(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusCompleted, toggled.Status)

	got, err := todoService.GetTodo(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusCompleted, got.Status)
}

func TestTodoService_ToggleTodoStatus_NotFound(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	_, err := todoService.ToggleTodoStatus(context.Background(), makeUser("user-alice", "Alice"), "todo-ghost")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestTodoService_DeleteTodo(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	created, err := todoService.AddTodo(ctx, alice, AddTodoRequest{Title: "Buy milk"})
	require.NoError(t, err)

	require.NoError(t, todoService.DeleteTodo(ctx, alice, created.ID))

	_, err = todoService.GetTodo(ctx, alice.ID, created.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	// Deleting again is a no-op.
	require.NoError(t, todoService.DeleteTodo(ctx, alice, created.ID))
}

func TestTodoService_ListTodos_FilterAndSort(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	ctx := context.Background()
	alice := makeUser("user-alice", "Alice")

	pastDue := time.Now().Add(-time.Hour)
	futureDue := time.Now().Add(48 * time.Hour)

	_, err := todoService.AddTodo(ctx, alice, AddTodoRequest{Title: "File taxes", Priority: "high", DueDate: &pastDue})
	require.NoError(t, err)
	_, err = todoService.AddTodo(ctx, alice, AddTodoRequest{Title: "Buy milk", Priority: "low", DueDate: &futureDue})
	require.NoError(t, err)
	groceries, err := todoService.AddTodo(ctx, alice, AddTodoRequest{Title: "Plan meals", Priority: "medium", Tags: []string{"groceries"}})
	require.NoError(t, err)

	// Unfiltered, sorted by priority: high first, then medium, low.
	all, err := todoService.ListTodos(ctx, alice.ID, domain.TodoFilter{}, domain.TodoSortPriority)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "File taxes", all[0].Title)
	assert.Equal(t, "Plan meals", all[1].Title)
	assert.Equal(t, "Buy milk", all[2].Title)

	// The overdue filter uses the derived status.
	overdue, err := todoService.ListTodos(ctx, alice.ID, domain.TodoFilter{Status: string(domain.TodoStatusOverdue)}, domain.TodoSortCreated)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "File taxes", overdue[0].Title)
	assert.Equal(t, domain.TodoStatusOverdue, overdue[0].Status)

	// Search matches tags.
	tagged, err := todoService.ListTodos(ctx, alice.ID, domain.TodoFilter{Search: "grocer"}, domain.TodoSortCreated)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, groceries.ID, tagged[0].ID)
}

func TestTodoService_ListTodos_Empty(t *testing.T) {
	todoService, cleanup := setupTodoTest(t)
	defer cleanup()

	todos, err := todoService.ListTodos(context.Background(), "user-nobody", domain.TodoFilter{}, domain.TodoSortCreated)
	require.NoError(t, err)
	assert.Empty(t, todos)
}
