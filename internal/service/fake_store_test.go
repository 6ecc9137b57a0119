package service

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
	"github.com/Tomlord1122/todo-items/internal/repository"
)

// fakeStore is an in-memory repository.Store. It records the filters it is
// given and honors only the parts of a filter the service tests rely on:
// the items include and a todoId constraint. Item timestamps are stored at
// microsecond precision, like PostgreSQL.
type fakeStore struct {
	todos  map[uint]domain.Todo
	items  map[uint]domain.Item
	nextID uint

	lastFilter *filter.Filter
	failItems  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{todos: map[uint]domain.Todo{}, items: map[uint]domain.Item{}}
}

func (s *fakeStore) Todos() repository.TodoRepository { return fakeTodos{s} }
func (s *fakeStore) Items() repository.ItemRepository { return fakeItems{s} }

func (s *fakeStore) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	todos, items, next := maps.Clone(s.todos), maps.Clone(s.items), s.nextID
	if err := fn(s); err != nil {
		s.todos, s.items, s.nextID = todos, items, next
		return err
	}
	return nil
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) itemsOf(todoID uint) []domain.Item {
	out := []domain.Item{}
	for _, id := range slices.Sorted(maps.Keys(s.items)) {
		if s.items[id].TodoID == todoID {
			out = append(out, s.items[id])
		}
	}
	return out
}

func (s *fakeStore) withItems(todo domain.Todo, f *filter.Filter) domain.Todo {
	scope, ok := f.IncludeScope(repository.RelationItems)
	if !ok {
		return todo
	}
	todo.Items = []domain.Item{}
	for _, item := range s.itemsOf(todo.ID) {
		if scope != nil && scope.Where["isCompleted"] == true && !item.IsCompleted {
			continue
		}
		todo.Items = append(todo.Items, item)
	}
	return todo
}

type fakeTodos struct{ s *fakeStore }

func (r fakeTodos) Create(_ context.Context, todo *domain.Todo) error {
	now := time.Now()
	todo.ID = r.s.id()
	todo.CreatedAt, todo.UpdatedAt = now, now
	r.s.todos[todo.ID] = *todo
	return nil
}

func (r fakeTodos) Find(_ context.Context, f *filter.Filter) ([]domain.Todo, error) {
	r.s.lastFilter = f
	out := []domain.Todo{}
	for _, id := range slices.Sorted(maps.Keys(r.s.todos)) {
		out = append(out, r.s.withItems(r.s.todos[id], f))
	}
	return out, nil
}

func (r fakeTodos) FindByID(_ context.Context, id uint, f *filter.Filter) (*domain.Todo, error) {
	r.s.lastFilter = f
	todo, ok := r.s.todos[id]
	if !ok {
		return nil, domain.ErrTodoNotFound
	}
	todo = r.s.withItems(todo, f)
	return &todo, nil
}

func (r fakeTodos) UpdateByID(_ context.Context, id uint, patch domain.TodoPatch) error {
	todo, ok := r.s.todos[id]
	if !ok {
		return domain.ErrTodoNotFound
	}
	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Subtitle != nil {
		todo.Subtitle = patch.Subtitle
	}
	if patch.Status != nil {
		todo.Status = *patch.Status
	}
	if !patch.Empty() {
		todo.UpdatedAt = time.Now()
	}
	r.s.todos[id] = todo
	return nil
}

func (r fakeTodos) Exists(_ context.Context, id uint) (bool, error) {
	_, ok := r.s.todos[id]
	return ok, nil
}

type fakeItems struct{ s *fakeStore }

func (r fakeItems) Create(_ context.Context, item *domain.Item) error {
	if _, ok := r.s.todos[item.TodoID]; !ok {
		return domain.ErrTodoNotFound
	}
	now := time.Now()
	item.ID = r.s.id()
	item.CreatedAt, item.UpdatedAt = now, now
	stored := *item
	stored.CreatedAt, stored.UpdatedAt = now.Truncate(time.Microsecond), now.Truncate(time.Microsecond)
	r.s.items[item.ID] = stored
	return nil
}

func (r fakeItems) CreateAll(ctx context.Context, items []domain.Item) error {
	if r.s.failItems != nil && len(items) > 0 {
		return r.s.failItems
	}
	for i := range items {
		if err := r.Create(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r fakeItems) Find(_ context.Context, f *filter.Filter) ([]domain.Item, error) {
	r.s.lastFilter = f
	out := []domain.Item{}
	for _, id := range slices.Sorted(maps.Keys(r.s.items)) {
		out = append(out, r.s.items[id])
	}
	return out, nil
}

func (r fakeItems) FindByID(_ context.Context, id uint, f *filter.Filter) (*domain.Item, error) {
	r.s.lastFilter = f
	item, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (r fakeItems) UpdateByID(_ context.Context, id uint, patch domain.ItemPatch) error {
	item, ok := r.s.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	if patch.IsCompleted != nil {
		item.IsCompleted = *patch.IsCompleted
	}
	if patch.CompletedAt != nil {
		item.CompletedAt = patch.CompletedAt
	}
	r.s.items[id] = item
	return nil
}

func (r fakeItems) DeleteByID(_ context.Context, id uint) error {
	if _, ok := r.s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.s.items, id)
	return nil
}
