package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
)

// TodoRepository defines the interface for todo data operations
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	Find(ctx context.Context, f *filter.Filter) ([]domain.Todo, error)
	FindByID(ctx context.Context, id uint, f *filter.Filter) (*domain.Todo, error)
	UpdateByID(ctx context.Context, id uint, patch domain.TodoPatch) error
	Exists(ctx context.Context, id uint) (bool, error)
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

// Create inserts todo and fills in its generated id and timestamps. The
// Items association is never written.
func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(todo).Error
	return translateError(err, domain.ErrTodoNotFound)
}

// Find lists todos matching f, ordered by id unless f says otherwise.
func (r *gormTodoRepository) Find(ctx context.Context, f *filter.Filter) ([]domain.Todo, error) {
	db := r.db.WithContext(ctx)
	q, err := queryTodos(db, f)
	if err != nil {
		return nil, err
	}

	todos := []domain.Todo{}
	if err := filter.Paginate(q, f).Find(&todos).Error; err != nil {
		return nil, translateError(err, domain.ErrTodoNotFound)
	}
	if err := attachItems(db, todos, f); err != nil {
		return nil, translateError(err, domain.ErrTodoNotFound)
	}
	return todos, nil
}

// FindByID retrieves a todo by its ID. The where, limit and skip parts of f
// are ignored.
func (r *gormTodoRepository) FindByID(ctx context.Context, id uint, f *filter.Filter) (*domain.Todo, error) {
	db := r.db.WithContext(ctx)
	q, err := queryTodos(db, byIDFilter(f))
	if err != nil {
		return nil, err
	}

	var todo domain.Todo
	if err := q.Where("id = ?", id).Take(&todo).Error; err != nil {
		return nil, translateError(err, domain.ErrTodoNotFound)
	}

	todos := []domain.Todo{todo}
	if err := attachItems(db, todos, f); err != nil {
		return nil, translateError(err, domain.ErrTodoNotFound)
	}
	return &todos[0], nil
}

// UpdateByID applies the non-nil fields of patch. UpdatedAt is refreshed by
// GORM. An empty patch only checks that the todo exists.
func (r *gormTodoRepository) UpdateByID(ctx context.Context, id uint, patch domain.TodoPatch) error {
	if patch.Empty() {
		ok, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrTodoNotFound
		}
		return nil
	}

	updates := make(map[string]any, 3)
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Subtitle != nil {
		updates["subtitle"] = *patch.Subtitle
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}

	result := r.db.WithContext(ctx).Model(&domain.Todo{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translateError(result.Error, domain.ErrTodoNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *gormTodoRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Todo{}).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return false, translateError(err, domain.ErrTodoNotFound)
	}
	return n > 0, nil
}

// byIDFilter keeps the parts of f that make sense for a single-row lookup.
func byIDFilter(f *filter.Filter) *filter.Filter {
	if f == nil {
		return nil
	}
	return &filter.Filter{Fields: f.Fields, Include: f.Include}
}
