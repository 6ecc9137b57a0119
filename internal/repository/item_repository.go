package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
)

// ItemRepository defines the interface for item data operations
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	CreateAll(ctx context.Context, items []domain.Item) error
	Find(ctx context.Context, f *filter.Filter) ([]domain.Item, error)
	FindByID(ctx context.Context, id uint, f *filter.Filter) (*domain.Item, error)
	UpdateByID(ctx context.Context, id uint, patch domain.ItemPatch) error
	DeleteByID(ctx context.Context, id uint) error
}

type gormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GORM item repository
func NewGormItemRepository(db *gorm.DB) ItemRepository {
	return &gormItemRepository{db: db}
}

// Create inserts item. A TodoID that references no todo yields
// domain.ErrTodoNotFound.
func (r *gormItemRepository) Create(ctx context.Context, item *domain.Item) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
	return translateError(err, domain.ErrItemNotFound)
}

// CreateAll inserts items in one statement and fills in their ids.
func (r *gormItemRepository) CreateAll(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
	return translateError(err, domain.ErrItemNotFound)
}

func (r *gormItemRepository) Find(ctx context.Context, f *filter.Filter) ([]domain.Item, error) {
	db := r.db.WithContext(ctx)
	q, err := queryItems(db, f)
	if err != nil {
		return nil, err
	}

	items := []domain.Item{}
	if err := filter.Paginate(q, f).Find(&items).Error; err != nil {
		return nil, translateError(err, domain.ErrItemNotFound)
	}
	if err := attachTodos(db, items, f); err != nil {
		return nil, translateError(err, domain.ErrItemNotFound)
	}
	return items, nil
}

func (r *gormItemRepository) FindByID(ctx context.Context, id uint, f *filter.Filter) (*domain.Item, error) {
	db := r.db.WithContext(ctx)
	q, err := queryItems(db, byIDFilter(f))
	if err != nil {
		return nil, err
	}

	var item domain.Item
	if err := q.Where("id = ?", id).Take(&item).Error; err != nil {
		return nil, translateError(err, domain.ErrItemNotFound)
	}

	items := []domain.Item{item}
	if err := attachTodos(db, items, f); err != nil {
		return nil, translateError(err, domain.ErrItemNotFound)
	}
	return &items[0], nil
}

func (r *gormItemRepository) UpdateByID(ctx context.Context, id uint, patch domain.ItemPatch) error {
	db := r.db.WithContext(ctx)
	if patch.Empty() {
		var n int64
		if err := db.Model(&domain.Item{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return translateError(err, domain.ErrItemNotFound)
		}
		if n == 0 {
			return domain.ErrItemNotFound
		}
		return nil
	}

	updates := make(map[string]any, 3)
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.IsCompleted != nil {
		updates["is_completed"] = *patch.IsCompleted
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = *patch.CompletedAt
	}

	result := db.Model(&domain.Item{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translateError(result.Error, domain.ErrItemNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// DeleteByID permanently removes the item.
func (r *gormItemRepository) DeleteByID(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Item{}, id)
	if result.Error != nil {
		return translateError(result.Error, domain.ErrItemNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
