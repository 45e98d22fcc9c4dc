package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	domainerrors "github.com/cartboardapp/cartboard-server/internal/errors"
	"github.com/cartboardapp/cartboard-server/internal/id"
	"github.com/cartboardapp/cartboard-server/internal/sse"
	"github.com/cartboardapp/cartboard-server/internal/store"
)

// TodoService manages per-user todo records.
//
// Todos only ever persist pending or completed; the overdue status is
// derived from the due date when todos are listed and never written.
type TodoService struct {
	store      *store.Store
	activities *ActivityService
	sseManager *sse.Manager
	logger     *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewTodoService creates a new todo service.
func NewTodoService(
	store *store.Store,
	activities *ActivityService,
	sseManager *sse.Manager,
	logger *slog.Logger,
) *TodoService {
	return &TodoService{
		store:      store,
		activities: activities,
		sseManager: sseManager,
		logger:     logger,
		now:        time.Now,
	}
}

// AddTodoRequest contains the data for creating a todo.
type AddTodoRequest struct {
	Title       string           `json:"title" validate:"required,max=500"`
	Description string           `json:"description" validate:"max=5000"`
	Priority    string           `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time       `json:"due_date"`
	Tags        []string         `json:"tags"`
	Subtasks    []domain.Subtask `json:"subtasks"`
}

// UpdateTodoRequest contains the optional fields for a merge-patch.
// Nil fields are left untouched.
type UpdateTodoRequest struct {
	Title       *string           `json:"title" validate:"omitempty,max=500"`
	Description *string           `json:"description" validate:"omitempty,max=5000"`
	Priority    *string           `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time        `json:"due_date"`
	Tags        *[]string         `json:"tags"`
	Subtasks    *[]domain.Subtask `json:"subtasks"`
}

// AddTodo creates a new todo for the user.
// New todos are always pending with created and updated timestamps
// equal, and tags default to an empty list.
func (s *TodoService) AddTodo(ctx context.Context, user *domain.User, req AddTodoRequest) (*domain.Todo, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	todoID, err := id.Generate("todo")
	if err != nil {
		return nil, fmt.Errorf("generate todo ID: %w", err)
	}

	priority := domain.TodoPriority(req.Priority)
	if priority == "" {
		priority = domain.TodoPriorityMedium
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := s.now()
	todo := &domain.Todo{
		Syncable: domain.Syncable{
			ID:        todoID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Status:      domain.TodoStatusPending,
		DueDate:     req.DueDate,
		Tags:        tags,
		Subtasks:    req.Subtasks,
	}

	if err := s.store.Write(ctx, store.TodoPath(user.ID, todoID), todo); err != nil {
		return nil, fmt.Errorf("write todo: %w", err)
	}

	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewTodoCreatedEvent(todo))
	}

	if s.logger != nil {
		s.logger.Info("Todo created",
			"todo_id", todoID,
			"user_id", user.ID,
		)
	}

	return todo, nil
}

// UpdateTodo merge-patches the named fields of a todo and always bumps
// the updated timestamp. Fields left nil in the request are untouched.
func (s *TodoService) UpdateTodo(ctx context.Context, user *domain.User, todoID string, req UpdateTodoRequest) (*domain.Todo, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.GetTodo(ctx, user.ID, todoID); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"updated_at": s.now(),
	}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Priority != nil {
		fields["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		fields["due_date"] = *req.DueDate
	}
	if req.Tags != nil {
		fields["tags"] = *req.Tags
	}
	if req.Subtasks != nil {
		fields["subtasks"] = *req.Subtasks
	}

	if err := s.store.Patch(ctx, store.TodoPath(user.ID, todoID), fields); err != nil {
		return nil, fmt.Errorf("patch todo: %w", err)
	}

	todo, err := s.GetTodo(ctx, user.ID, todoID)
	if err != nil {
		return nil, err
	}

	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewTodoUpdatedEvent(todo))
	}

	return todo, nil
}

// ToggleTodoStatus flips a todo between pending and completed.
// The lookup runs against a snapshot of the user's todos; a todo shown
// as overdue is still pending underneath, so toggling it marks it
// completed rather than bouncing it back to pending. Errors if the id
// is not present in the snapshot.
func (s *TodoService) ToggleTodoStatus(ctx context.Context, user *domain.User, todoID string) (*domain.Todo, error) {
	todos, err := s.readTodos(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	todo, ok := todos[todoID]
	if !ok {
		return nil, domainerrors.NotFound("not found")
	}

	newStatus := todo.ToggledStatus()
	now := s.now()
	fields := map[string]any{
		"status":     newStatus,
		"updated_at": now,
	}
	if err := s.store.Patch(ctx, store.TodoPath(user.ID, todoID), fields); err != nil {
		return nil, fmt.Errorf("patch todo status: %w", err)
	}

	todo.Status = newStatus
	todo.UpdatedAt = now

	if newStatus == domain.TodoStatusCompleted {
		s.activities.RecordTodoCompleted(ctx, user, &todo)
	}
	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewTodoToggledEvent(&todo))
	}

	return &todo, nil
}

// DeleteTodo removes a todo record. Deleting a missing todo is a no-op.
func (s *TodoService) DeleteTodo(ctx context.Context, user *domain.User, todoID string) error {
	if err := s.store.Delete(ctx, store.TodoPath(user.ID, todoID)); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	if s.sseManager != nil {
		s.sseManager.Emit(sse.NewTodoDeletedEvent(user.ID, todoID, s.now()))
	}

	return nil
}

// GetTodo reads a single todo by ID.
func (s *TodoService) GetTodo(ctx context.Context, userID, todoID string) (*domain.Todo, error) {
	snap, err := s.store.ReadOnce(ctx, store.TodoPath(userID, todoID))
	if err != nil {
		return nil, fmt.Errorf("read todo: %w", err)
	}
	if !snap.Exists() {
		return nil, domainerrors.NotFound("not found")
	}

	var todo domain.Todo
	if err := snap.Decode(&todo); err != nil {
		return nil, fmt.Errorf("decode todo: %w", err)
	}
	if todo.ID == "" {
		todo.ID = todoID
	}
	return &todo, nil
}

// ListTodos returns the user's todos with the filter and sort applied.
// Statuses in the result are derived for display: a pending todo past
// its due date comes back as overdue, but nothing is written.
func (s *TodoService) ListTodos(ctx context.Context, userID string, filter domain.TodoFilter, sortKey domain.TodoSortKey) ([]*domain.Todo, error) {
	todos, err := s.readTodos(ctx, userID)
	if err != nil {
		return nil, err
	}

	all := make([]*domain.Todo, 0, len(todos))
	for todoID := range todos {
		todo := todos[todoID]
		all = append(all, &todo)
	}

	now := s.now()
	result := domain.FilterAndSortTodos(all, filter, sortKey, now)

	// Surface the derived status without touching the store.
	for _, todo := range result {
		todo.Status = todo.DeriveStatus(now)
	}
	return result, nil
}

// WatchTodos subscribes to changes to a user's todo collection.
func (s *TodoService) WatchTodos(ctx context.Context, userID string, handler store.SnapshotHandler) (*store.Subscription, error) {
	return s.store.Subscribe(ctx, store.TodosPath(userID), handler)
}

// readTodos loads the user's todos from a single snapshot of the
// todos/{userId} subtree.
func (s *TodoService) readTodos(ctx context.Context, userID string) (map[string]domain.Todo, error) {
	snap, err := s.store.ReadOnce(ctx, store.TodosPath(userID))
	if err != nil {
		return nil, fmt.Errorf("read todos: %w", err)
	}
	if !snap.Exists() {
		return map[string]domain.Todo{}, nil
	}

	var todos map[string]domain.Todo
	if err := snap.Decode(&todos); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	for todoID, todo := range todos {
		if todo.ID == "" {
			todo.ID = todoID
			todos[todoID] = todo
		}
	}
	return todos, nil
}
