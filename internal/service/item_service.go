package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
	"github.com/Tomlord1122/todo-items/internal/repository"
)

// CreateItemRequest holds the data needed to create an item. IsCompleted is
// a pointer so that an explicit false can be told apart from a missing field.
type CreateItemRequest struct {
	Content     string     `json:"content" validate:"required"`
	IsCompleted *bool      `json:"isCompleted" validate:"required"`
	CompletedAt *time.Time `json:"completedAt"`
}

// UpdateItemRequest holds the item fields a partial update may change.
type UpdateItemRequest struct {
	Content     *string    `json:"content" validate:"omitnil,min=1"`
	IsCompleted *bool      `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt"`
}

// ItemService defines the operations for managing the items of a todo.
type ItemService interface {
	CreateItem(ctx context.Context, todoID uint, req CreateItemRequest) (*domain.Item, error)
	// ListItems returns the items of todoID matching f. The todo constraint
	// cannot be widened by f.
	ListItems(ctx context.Context, todoID uint, f *filter.Filter) ([]domain.Item, error)
	GetItem(ctx context.Context, id uint, f *filter.Filter) (*domain.Item, error)
	UpdateItem(ctx context.Context, id uint, req UpdateItemRequest) error
	// DeleteItem removes the item permanently.
	DeleteItem(ctx context.Context, id uint) error
}

type itemService struct {
	store repository.Store
}

// NewItemService creates a new instance of itemService.
func NewItemService(store repository.Store) ItemService {
	return &itemService{store: store}
}

func (s *itemService) CreateItem(ctx context.Context, todoID uint, req CreateItemRequest) (*domain.Item, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if blank(req.Content) {
		return nil, domain.ErrContentRequired
	}

	item := req.toItem(todoID)
	if err := s.store.Items().Create(ctx, &item); err != nil {
		return nil, fmt.Errorf("create item of todo %d: %w", todoID, err)
	}

	// Timestamps are returned as stored, at the database's precision.
	created, err := s.store.Items().FindByID(ctx, item.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("reload item %d: %w", item.ID, err)
	}

	slog.InfoContext(ctx, "Item created", "item_id", created.ID, "todo_id", todoID)
	return created, nil
}

func (s *itemService) ListItems(ctx context.Context, todoID uint, f *filter.Filter) ([]domain.Item, error) {
	return s.store.Items().Find(ctx, filter.WithConstraint(f, filter.Where{"todoId": int64(todoID)}))
}

func (s *itemService) GetItem(ctx context.Context, id uint, f *filter.Filter) (*domain.Item, error) {
	if err := filter.WithoutWhere(f); err != nil {
		return nil, err
	}
	return s.store.Items().FindByID(ctx, id, f)
}

func (s *itemService) UpdateItem(ctx context.Context, id uint, req UpdateItemRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if req.Content != nil && blank(*req.Content) {
		return domain.ErrContentRequired
	}

	patch := domain.ItemPatch{
		Content:     req.Content,
		IsCompleted: req.IsCompleted,
		CompletedAt: req.CompletedAt,
	}
	if err := s.store.Items().UpdateByID(ctx, id, patch); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Item updated", "item_id", id)
	return nil
}

func (s *itemService) DeleteItem(ctx context.Context, id uint) error {
	if err := s.store.Items().DeleteByID(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Item deleted", "item_id", id)
	return nil
}
