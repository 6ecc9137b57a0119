package repository

import (
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
)

// Relations are resolved in two steps: the parent rows are fetched first,
// then the related rows for all parents are fetched with one IN query and
// attached in memory. Scope limit and skip apply per parent.

func queryTodos(db *gorm.DB, f *filter.Filter) (*gorm.DB, error) {
	if err := TodoSchema.Validate(f); err != nil {
		return nil, err
	}
	q, err := TodoSchema.Apply(db.Model(&domain.Todo{}), f, "id")
	if err != nil {
		return nil, err
	}
	if f == nil || len(f.Order) == 0 {
		q = q.Order("id")
	}
	return q, nil
}

func queryItems(db *gorm.DB, f *filter.Filter) (*gorm.DB, error) {
	if err := ItemSchema.Validate(f); err != nil {
		return nil, err
	}
	q, err := ItemSchema.Apply(db.Model(&domain.Item{}), f, "id", "todo_id")
	if err != nil {
		return nil, err
	}
	if f == nil || len(f.Order) == 0 {
		q = q.Order("id")
	}
	return q, nil
}

// attachItems sets Items on every todo when f includes the items relation.
// Todos without items get an empty, non-nil slice.
func attachItems(db *gorm.DB, todos []domain.Todo, f *filter.Filter) error {
	scope, ok := f.IncludeScope(RelationItems)
	if !ok {
		return nil
	}
	q, err := queryItems(db, scope)
	if err != nil {
		return err
	}
	for i := range todos {
		todos[i].Items = []domain.Item{}
	}
	if len(todos) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(todos))
	index := make(map[uint]int, len(todos))
	for i, t := range todos {
		ids = append(ids, t.ID)
		index[t.ID] = i
	}

	var items []domain.Item
	if err := q.Where("todo_id IN ?", ids).Find(&items).Error; err != nil {
		return err
	}
	if err := attachTodos(db, items, scope); err != nil {
		return err
	}

	for _, item := range items {
		i := index[item.TodoID]
		todos[i].Items = append(todos[i].Items, item)
	}
	if scope != nil && (scope.Skip != nil || scope.Limit != nil) {
		for i := range todos {
			todos[i].Items = window(todos[i].Items, scope.Skip, scope.Limit)
		}
	}
	return nil
}

// attachTodos sets Todo on every item when f includes the todo relation.
func attachTodos(db *gorm.DB, items []domain.Item, f *filter.Filter) error {
	scope, ok := f.IncludeScope(RelationTodo)
	if !ok {
		return nil
	}
	q, err := queryTodos(db, scope)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if !seen[item.TodoID] {
			seen[item.TodoID] = true
			ids = append(ids, item.TodoID)
		}
	}

	var todos []domain.Todo
	if err := q.Where("id IN ?", ids).Find(&todos).Error; err != nil {
		return err
	}
	if err := attachItems(db, todos, scope); err != nil {
		return err
	}

	byID := make(map[uint]*domain.Todo, len(todos))
	for i := range todos {
		byID[todos[i].ID] = &todos[i]
	}
	for i := range items {
		items[i].Todo = byID[items[i].TodoID]
	}
	return nil
}

func window[T any](s []T, skip, limit *int) []T {
	if skip != nil {
		s = s[min(*skip, len(s)):]
	}
	if limit != nil && *limit < len(s) {
		s = s[:*limit]
	}
	return s
}
