package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
	"github.com/Tomlord1122/todo-items/internal/repository"
)

// CreateTodoRequest holds a new todo and the items to create with it.
type CreateTodoRequest struct {
	Todo  *TodoInput          `json:"todo" validate:"required"`
	Items []CreateItemRequest `json:"items" validate:"omitempty,dive"`
}

// TodoInput holds the writable fields of a new todo. An empty Status means
// ACTIVE.
type TodoInput struct {
	Title    string  `json:"title" validate:"required"`
	Subtitle *string `json:"subtitle"`
	Status   string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DELETED"`
}

// UpdateTodoRequest holds the data for updating an existing todo.
// Using pointers allows distinguishing between a field being omitted
// vs. being set to its zero value.
type UpdateTodoRequest struct {
	Title    *string `json:"title" validate:"omitnil,min=1"`
	Subtitle *string `json:"subtitle"`
	Status   *string `json:"status" validate:"omitnil,oneof=ACTIVE INACTIVE DELETED"`
}

// TodoService defines the operations for managing todos.
type TodoService interface {
	// CreateTodo creates a todo and its items in one transaction and returns
	// the stored todo with items attached.
	CreateTodo(ctx context.Context, req CreateTodoRequest) (*domain.Todo, error)

	// ListTodos returns the todos matching f. Items are included unless f
	// carries its own include list.
	ListTodos(ctx context.Context, f *filter.Filter) ([]domain.Todo, error)

	// GetTodo retrieves a single todo. f may not contain a where clause.
	GetTodo(ctx context.Context, id uint, f *filter.Filter) (*domain.Todo, error)

	// UpdateTodo changes the fields present in req.
	UpdateTodo(ctx context.Context, id uint, req UpdateTodoRequest) error

	// DeleteTodo marks the todo DELETED. The row and its items are kept.
	DeleteTodo(ctx context.Context, id uint) error
}

type todoService struct {
	store repository.Store
}

// NewTodoService creates a new instance of todoService.
func NewTodoService(store repository.Store) TodoService {
	return &todoService{store: store}
}

func (s *todoService) CreateTodo(ctx context.Context, req CreateTodoRequest) (*domain.Todo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if blank(req.Todo.Title) {
		return nil, domain.ErrTitleRequired
	}
	for _, in := range req.Items {
		if blank(in.Content) {
			return nil, domain.ErrContentRequired
		}
	}
	status, err := domain.ParseTodoStatus(req.Todo.Status)
	if err != nil {
		return nil, err
	}

	var created *domain.Todo
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		todo := &domain.Todo{
			Title:    req.Todo.Title,
			Subtitle: req.Todo.Subtitle,
			Status:   status,
		}
		if err := tx.Todos().Create(ctx, todo); err != nil {
			return fmt.Errorf("create todo: %w", err)
		}

		items := make([]domain.Item, 0, len(req.Items))
		for _, in := range req.Items {
			items = append(items, in.toItem(todo.ID))
		}
		if err := tx.Items().CreateAll(ctx, items); err != nil {
			return fmt.Errorf("create items of todo %d: %w", todo.ID, err)
		}

		reloaded, err := tx.Todos().FindByID(ctx, todo.ID, filter.WithDefaultInclude(nil, repository.RelationItems))
		if err != nil {
			return fmt.Errorf("reload todo %d: %w", todo.ID, err)
		}
		created = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Todo created", "todo_id", created.ID, "items", len(created.Items))
	return created, nil
}

func (s *todoService) ListTodos(ctx context.Context, f *filter.Filter) ([]domain.Todo, error) {
	return s.store.Todos().Find(ctx, filter.WithDefaultInclude(f, repository.RelationItems))
}

func (s *todoService) GetTodo(ctx context.Context, id uint, f *filter.Filter) (*domain.Todo, error) {
	if err := filter.WithoutWhere(f); err != nil {
		return nil, err
	}
	return s.store.Todos().FindByID(ctx, id, filter.WithDefaultInclude(f, repository.RelationItems))
}

func (s *todoService) UpdateTodo(ctx context.Context, id uint, req UpdateTodoRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if req.Title != nil && blank(*req.Title) {
		return domain.ErrTitleRequired
	}

	patch := domain.TodoPatch{Title: req.Title, Subtitle: req.Subtitle}
	if req.Status != nil {
		status, err := domain.ParseTodoStatus(*req.Status)
		if err != nil {
			return err
		}
		patch.Status = &status
	}

	if err := s.store.Todos().UpdateByID(ctx, id, patch); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Todo updated", "todo_id", id)
	return nil
}

func (s *todoService) DeleteTodo(ctx context.Context, id uint) error {
	status := domain.TodoStatusDeleted
	if err := s.store.Todos().UpdateByID(ctx, id, domain.TodoPatch{Status: &status}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Todo deleted", "todo_id", id)
	return nil
}

// toItem converts the request into an Item owned by todoID.
func (r CreateItemRequest) toItem(todoID uint) domain.Item {
	item := domain.Item{
		Content:     r.Content,
		CompletedAt: r.CompletedAt,
		TodoID:      todoID,
	}
	if r.IsCompleted != nil {
		item.IsCompleted = *r.IsCompleted
	}
	return item
}
