package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cartboardapp/cartboard-server/internal/domain"
	"github.com/cartboardapp/cartboard-server/internal/service"
)

func (s *Server) registerTodoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createTodo",
		Method:      http.MethodPost,
		Path:        "/api/v1/todos",
		Summary:     "Create todo",
		Description: "Creates a new todo for the authenticated user",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTodos",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos",
		Summary:     "List todos",
		Description: "Returns the authenticated user's todos with optional filtering and sorting",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTodos)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTodo",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos/{todoID}",
		Summary:     "Get todo",
		Description: "Returns a single todo",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTodo",
		Method:      http.MethodPatch,
		Path:        "/api/v1/todos/{todoID}",
		Summary:     "Update todo",
		Description: "Merge-patches a todo. Omitted fields are left untouched.",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleTodo",
		Method:      http.MethodPost,
		Path:        "/api/v1/todos/{todoID}/toggle",
		Summary:     "Toggle todo",
		Description: "Flips a todo between completed and pending. Overdue todos toggle to completed.",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTodo",
		Method:      http.MethodDelete,
		Path:        "/api/v1/todos/{todoID}",
		Summary:     "Delete todo",
		Description: "Deletes a todo. Deleting a missing todo is a no-op.",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTodo)
}

// === DTOs ===

// SubtaskRequest contains one subtask in create and update requests.
type SubtaskRequest struct {
	ID        string `json:"id,omitempty" doc:"Subtask ID, assigned by the client"`
	Title     string `json:"title" validate:"required,max=500" doc:"Subtask title"`
	Completed bool   `json:"completed" doc:"Whether the subtask is done"`
}

// CreateTodoRequest is the request body for creating a todo.
type CreateTodoRequest struct {
	Title       string           `json:"title" validate:"required,max=500" doc:"Todo title"`
	Description string           `json:"description,omitempty" validate:"omitempty,max=5000" doc:"Longer description"`
	Priority    string           `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" doc:"Priority, defaults to medium"`
	DueDate     *time.Time       `json:"due_date,omitempty" doc:"Optional due date"`
	Tags        []string         `json:"tags,omitempty" doc:"Free-form tags"`
	Subtasks    []SubtaskRequest `json:"subtasks,omitempty" doc:"Initial subtasks"`
}

// CreateTodoInput wraps the create request for Huma.
type CreateTodoInput struct {
	Body CreateTodoRequest
}

// UpdateTodoRequest is the merge-patch body. Omitted fields keep their
// current value; explicit nulls are not distinguished from omission.
type UpdateTodoRequest struct {
	Title       *string           `json:"title,omitempty" validate:"omitempty,max=500" doc:"New title"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=5000" doc:"New description"`
	Priority    *string           `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" doc:"New priority"`
	DueDate     *time.Time        `json:"due_date,omitempty" doc:"New due date"`
	Tags        *[]string         `json:"tags,omitempty" doc:"Replacement tag list"`
	Subtasks    *[]SubtaskRequest `json:"subtasks,omitempty" doc:"Replacement subtask list"`
}

// UpdateTodoInput wraps the update request for Huma.
type UpdateTodoInput struct {
	TodoID string `path:"todoID" maxLength:"100" doc:"Todo ID"`
	Body   UpdateTodoRequest
}

// TodoIDInput identifies a todo by path parameter.
type TodoIDInput struct {
	TodoID string `path:"todoID" maxLength:"100" doc:"Todo ID"`
}

// ListTodosInput contains the filter and sort query parameters.
type ListTodosInput struct {
	Status   string `query:"status" enum:"all,pending,completed,overdue" default:"all" doc:"Derived status filter"`
	Priority string `query:"priority" enum:"all,low,medium,high" default:"all" doc:"Priority filter"`
	Search   string `query:"search" maxLength:"200" doc:"Case-insensitive search over title, description, and tags"`
	Sort     string `query:"sort" enum:"created,due_date,priority" default:"created" doc:"Sort order"`
}

// SubtaskResponse contains one subtask.
type SubtaskResponse struct {
	ID        string `json:"id" doc:"Subtask ID"`
	Title     string `json:"title" doc:"Subtask title"`
	Completed bool   `json:"completed" doc:"Whether the subtask is done"`
}

// TodoResponse contains todo data in API responses. Status is the derived
// display status, so a pending todo past its due date shows as overdue.
type TodoResponse struct {
	ID          string            `json:"id" doc:"Todo ID"`
	Title       string            `json:"title" doc:"Title"`
	Description string            `json:"description,omitempty" doc:"Description"`
	Priority    string            `json:"priority" doc:"Priority (low, medium, high)"`
	Status      string            `json:"status" doc:"Derived status (pending, completed, overdue)"`
	DueDate     *time.Time        `json:"due_date,omitempty" doc:"Due date"`
	Tags        []string          `json:"tags" doc:"Tags"`
	Subtasks    []SubtaskResponse `json:"subtasks,omitempty" doc:"Subtasks"`
	CreatedAt   time.Time         `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time         `json:"updated_at" doc:"Last update timestamp"`
}

// TodoOutput wraps a single todo for Huma.
type TodoOutput struct {
	Body TodoResponse
}

// TodosOutput wraps a todo list for Huma.
type TodosOutput struct {
	Body struct {
		Todos []TodoResponse `json:"todos" doc:"Matching todos"`
	}
}

// === Handlers ===

func (s *Server) handleCreateTodo(ctx context.Context, input *CreateTodoInput) (*TodoOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todo.AddTodo(ctx, user, service.AddTodoRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Priority:    input.Body.Priority,
		DueDate:     input.Body.DueDate,
		Tags:        input.Body.Tags,
		Subtasks:    mapSubtasks(input.Body.Subtasks),
	})
	if err != nil {
		return nil, err
	}

	return &TodoOutput{Body: mapTodoResponse(todo, time.Now())}, nil
}

func (s *Server) handleListTodos(ctx context.Context, input *ListTodosInput) (*TodosOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	filter := domain.TodoFilter{
		Status:   input.Status,
		Priority: input.Priority,
		Search:   input.Search,
	}

	todos, err := s.services.Todo.ListTodos(ctx, userID, filter, domain.TodoSortKey(input.Sort))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resp := make([]TodoResponse, len(todos))
	for i, todo := range todos {
		resp[i] = mapTodoResponse(todo, now)
	}

	out := &TodosOutput{}
	out.Body.Todos = resp
	return out, nil
}

func (s *Server) handleGetTodo(ctx context.Context, input *TodoIDInput) (*TodoOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todo.GetTodo(ctx, userID, input.TodoID)
	if err != nil {
		return nil, err
	}

	return &TodoOutput{Body: mapTodoResponse(todo, time.Now())}, nil
}

func (s *Server) handleUpdateTodo(ctx context.Context, input *UpdateTodoInput) (*TodoOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	req := service.UpdateTodoRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Priority:    input.Body.Priority,
		DueDate:     input.Body.DueDate,
		Tags:        input.Body.Tags,
	}
	if input.Body.Subtasks != nil {
		subtasks := mapSubtasks(*input.Body.Subtasks)
		req.Subtasks = &subtasks
	}

	todo, err := s.services.Todo.UpdateTodo(ctx, user, input.TodoID, req)
	if err != nil {
		return nil, err
	}

	return &TodoOutput{Body: mapTodoResponse(todo, time.Now())}, nil
}

func (s *Server) handleToggleTodo(ctx context.Context, input *TodoIDInput) (*TodoOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todo.ToggleTodoStatus(ctx, user, input.TodoID)
	if err != nil {
		return nil, err
	}

	return &TodoOutput{Body: mapTodoResponse(todo, time.Now())}, nil
}

func (s *Server) handleDeleteTodo(ctx context.Context, input *TodoIDInput) (*MessageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Todo.DeleteTodo(ctx, user, input.TodoID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Todo deleted"}}, nil
}

// === Helpers ===

func mapSubtasks(subtasks []SubtaskRequest) []domain.Subtask {
	if subtasks == nil {
		return nil
	}
	mapped := make([]domain.Subtask, len(subtasks))
	for i, st := range subtasks {
		mapped[i] = domain.Subtask{
			ID:        st.ID,
			Title:     st.Title,
			Completed: st.Completed,
		}
	}
	return mapped
}

func mapTodoResponse(todo *domain.Todo, now time.Time) TodoResponse {
	var subtasks []SubtaskResponse
	if len(todo.Subtasks) > 0 {
		subtasks = make([]SubtaskResponse, len(todo.Subtasks))
		for i, st := range todo.Subtasks {
			subtasks[i] = SubtaskResponse{
				ID:        st.ID,
				Title:     st.Title,
				Completed: st.Completed,
			}
		}
	}

	tags := todo.Tags
	if tags == nil {
		tags = []string{}
	}

	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Priority:    string(todo.Priority),
		Status:      string(todo.DeriveStatus(now)),
		DueDate:     todo.DueDate,
		Tags:        tags,
		Subtasks:    subtasks,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}
