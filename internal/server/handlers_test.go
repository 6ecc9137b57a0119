package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
	"github.com/Tomlord1122/todo-items/internal/service"
)

type fakeTodoService struct {
	create func(service.CreateTodoRequest) (*domain.Todo, error)
	list   func(*filter.Filter) ([]domain.Todo, error)
	get    func(uint, *filter.Filter) (*domain.Todo, error)
	update func(uint, service.UpdateTodoRequest) error
	delete func(uint) error
}

func (f *fakeTodoService) CreateTodo(_ context.Context, req service.CreateTodoRequest) (*domain.Todo, error) {
	return f.create(req)
}

func (f *fakeTodoService) ListTodos(_ context.Context, flt *filter.Filter) ([]domain.Todo, error) {
	return f.list(flt)
}

func (f *fakeTodoService) GetTodo(_ context.Context, id uint, flt *filter.Filter) (*domain.Todo, error) {
	return f.get(id, flt)
}

func (f *fakeTodoService) UpdateTodo(_ context.Context, id uint, req service.UpdateTodoRequest) error {
	return f.update(id, req)
}

func (f *fakeTodoService) DeleteTodo(_ context.Context, id uint) error {
	return f.delete(id)
}

type fakeItemService struct {
	create func(uint, service.CreateItemRequest) (*domain.Item, error)
	list   func(uint, *filter.Filter) ([]domain.Item, error)
	get    func(uint, *filter.Filter) (*domain.Item, error)
	update func(uint, service.UpdateItemRequest) error
	delete func(uint) error
}

func (f *fakeItemService) CreateItem(_ context.Context, todoID uint, req service.CreateItemRequest) (*domain.Item, error) {
	return f.create(todoID, req)
}

func (f *fakeItemService) ListItems(_ context.Context, todoID uint, flt *filter.Filter) ([]domain.Item, error) {
	return f.list(todoID, flt)
}

func (f *fakeItemService) GetItem(_ context.Context, id uint, flt *filter.Filter) (*domain.Item, error) {
	return f.get(id, flt)
}

func (f *fakeItemService) UpdateItem(_ context.Context, id uint, req service.UpdateItemRequest) error {
	return f.update(id, req)
}

func (f *fakeItemService) DeleteItem(_ context.Context, id uint) error {
	return f.delete(id)
}

type fakeDB struct{ status string }

func (f fakeDB) Health(context.Context) map[string]string { return map[string]string{"status": f.status} }
func (fakeDB) Close() error                               { return nil }
func (fakeDB) GetDB() *gorm.DB                            { return nil }
func (fakeDB) Migrate(context.Context) error              { return nil }
func (fakeDB) Reset(context.Context) error                { return nil }

var created = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func sampleTodo() domain.Todo {
	return domain.Todo{
		ID:        1,
		Title:     "T1",
		Status:    domain.TodoStatusActive,
		CreatedAt: created,
		UpdatedAt: created,
		Items: []domain.Item{
			{ID: 1, Content: "A", TodoID: 1, CreatedAt: created, UpdatedAt: created},
		},
	}
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, req)
	return rec
}

func withFilter(path, raw string) string {
	return path + "?filter=" + url.QueryEscape(raw)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHelloWorldHandler(t *testing.T) {
	rec := do(t, New(nil, nil, nil), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Hello World from Todo Items!"}`, rec.Body.String())
}

func TestHealthHandler(t *testing.T) {
	rec := do(t, New(nil, nil, fakeDB{status: "up"}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, New(nil, nil, fakeDB{status: "down"}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListTodosHandler_PassesFilter(t *testing.T) {
	var got *filter.Filter
	todos := &fakeTodoService{list: func(f *filter.Filter) ([]domain.Todo, error) {
		got = f
		return []domain.Todo{sampleTodo()}, nil
	}}

	rec := do(t, New(todos, nil, nil), http.MethodGet, withFilter("/todos", `{"where": {"status": "ACTIVE"}, "limit": 5}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	require.NotNil(t, got)
	assert.Equal(t, "ACTIVE", got.Where["status"])
	require.NotNil(t, got.Limit)
	assert.Equal(t, 5, *got.Limit)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "T1", body[0]["title"])
	assert.Len(t, body[0]["items"], 1)
}

func TestListTodosHandler_NoFilter(t *testing.T) {
	called := false
	todos := &fakeTodoService{list: func(f *filter.Filter) ([]domain.Todo, error) {
		called = true
		assert.Nil(t, f)
		return []domain.Todo{}, nil
	}}

	rec := do(t, New(todos, nil, nil), http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListTodosHandler_BadFilter(t *testing.T) {
	rec := do(t, New(&fakeTodoService{}, nil, nil), http.MethodGet, withFilter("/todos", `{"limit": -1}`), "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", detail.Code)
	require.Len(t, detail.Details, 1)
	assert.Equal(t, "filter.limit", detail.Details[0].Field)
}

func TestListTodosHandler_FieldProjection(t *testing.T) {
	todos := &fakeTodoService{list: func(*filter.Filter) ([]domain.Todo, error) {
		return []domain.Todo{sampleTodo()}, nil
	}}

	raw := `{"fields": {"id": true, "title": true}, "include": [{"relation": "items", "scope": {"fields": ["content"]}}]}`
	rec := do(t, New(todos, nil, nil), http.MethodGet, withFilter("/todos", raw), "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, `[{"id": 1, "title": "T1", "items": [{"content": "A"}]}]`, rec.Body.String())
}

func TestProject_KeepsDefaultRelation(t *testing.T) {
	todo := sampleTodo()
	raw, err := json.Marshal(todo)
	require.NoError(t, err)

	out, err := project(raw, &filter.Filter{Fields: filter.Fields{"title": true}})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, "T1", body["title"])
	assert.Contains(t, body, "items", "relations survive an inclusive projection")
	assert.NotContains(t, body, "status")

	out, err = project(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestGetTodoHandler(t *testing.T) {
	todos := &fakeTodoService{get: func(id uint, f *filter.Filter) (*domain.Todo, error) {
		if id != 1 {
			return nil, domain.ErrTodoNotFound
		}
		todo := sampleTodo()
		return &todo, nil
	}}
	s := New(todos, nil, nil)

	rec := do(t, s, http.MethodGet, "/todos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "ACTIVE", body["status"])
	assert.NotContains(t, body, "subtitle")

	rec = do(t, s, http.MethodGet, "/todos/2", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestGetTodoHandler_InvalidID(t *testing.T) {
	for _, id := range []string{"abc", "0", "-1"} {
		rec := do(t, New(&fakeTodoService{}, nil, nil), http.MethodGet, "/todos/"+id, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, rec).Code)
	}
}

func TestCreateTodoHandler(t *testing.T) {
	var got service.CreateTodoRequest
	todos := &fakeTodoService{create: func(req service.CreateTodoRequest) (*domain.Todo, error) {
		got = req
		todo := sampleTodo()
		return &todo, nil
	}}

	rec := do(t, New(todos, nil, nil), http.MethodPost, "/todos",
		`{"todo": {"title": "T1"}, "items": [{"content": "A", "isCompleted": false}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, got.Todo)
	assert.Equal(t, "T1", got.Todo.Title)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].IsCompleted)
	assert.False(t, *got.Items[0].IsCompleted)
}

func TestCreateTodoHandler_BodyErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "empty body", body: "", code: "INVALID_REQUEST"},
		{name: "malformed", body: `{"todo": `, code: "INVALID_REQUEST"},
		{name: "syntax", body: `{"todo": x}`, code: "INVALID_REQUEST"},
		{name: "unknown field", body: `{"todo": {"title": "x"}, "owner": 1}`, code: "VALIDATION_ERROR"},
		{name: "wrong type", body: `{"todo": {"title": 5}}`, code: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todos := &fakeTodoService{create: func(service.CreateTodoRequest) (*domain.Todo, error) {
				t.Fatal("service must not be called")
				return nil, nil
			}}
			rec := do(t, New(todos, nil, nil), http.MethodPost, "/todos", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestCreateTodoHandler_ValidationError(t *testing.T) {
	todos := &fakeTodoService{create: func(service.CreateTodoRequest) (*domain.Todo, error) {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "todo.title", Issue: "is required"}}}
	}}

	rec := do(t, New(todos, nil, nil), http.MethodPost, "/todos", `{"todo": {}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"error": {"code": "VALIDATION_ERROR", "message": "validation failed", "details": [{"field": "todo.title", "issue": "is required"}]}}`,
		rec.Body.String())
}

func TestUpdateTodoHandler(t *testing.T) {
	var gotID uint
	var got service.UpdateTodoRequest
	todos := &fakeTodoService{update: func(id uint, req service.UpdateTodoRequest) error {
		gotID, got = id, req
		if id == 9 {
			return domain.ErrTodoNotFound
		}
		return nil
	}}
	s := New(todos, nil, nil)

	rec := do(t, s, http.MethodPatch, "/todos/1", `{"status": "INACTIVE"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, uint(1), gotID)
	assert.Nil(t, got.Title)
	require.NotNil(t, got.Status)
	assert.Equal(t, "INACTIVE", *got.Status)

	rec = do(t, s, http.MethodPatch, "/todos/1", `{}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodPatch, "/todos/9", `{"title": "x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTodoHandler(t *testing.T) {
	todos := &fakeTodoService{delete: func(id uint) error {
		if id != 1 {
			return domain.ErrTodoNotFound
		}
		return nil
	}}
	s := New(todos, nil, nil)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/todos/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/todos/2", "").Code)
}

func TestInternalErrorIsHidden(t *testing.T) {
	todos := &fakeTodoService{list: func(*filter.Filter) ([]domain.Todo, error) {
		return nil, errors.New("connection reset by peer")
	}}

	rec := do(t, New(todos, nil, nil), http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", detail.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestCreateItemHandler(t *testing.T) {
	items := &fakeItemService{create: func(todoID uint, req service.CreateItemRequest) (*domain.Item, error) {
		if todoID != 1 {
			return nil, domain.ErrTodoNotFound
		}
		return &domain.Item{ID: 1, Content: req.Content, IsCompleted: *req.IsCompleted, TodoID: todoID, CreatedAt: created, UpdatedAt: created}, nil
	}}
	s := New(nil, items, nil)

	rec := do(t, s, http.MethodPost, "/todos/1/items", `{"content": "A", "isCompleted": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "A", body["content"])
	assert.Equal(t, false, body["isCompleted"])
	assert.Equal(t, float64(1), body["todoId"])
	assert.NotContains(t, body, "todo")

	rec = do(t, s, http.MethodPost, "/todos/2/items", `{"content": "A", "isCompleted": false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "todo not found", decodeError(t, rec).Message)
}

func TestCreateItemHandler_RejectsIdentifiers(t *testing.T) {
	items := &fakeItemService{create: func(uint, service.CreateItemRequest) (*domain.Item, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	s := New(nil, items, nil)

	for _, body := range []string{
		`{"content": "A", "isCompleted": false, "id": 3}`,
		`{"content": "A", "isCompleted": false, "todoId": 2}`,
	} {
		rec := do(t, s, http.MethodPost, "/todos/1/items", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		detail := decodeError(t, rec)
		require.Len(t, detail.Details, 1)
		assert.Equal(t, "is not allowed", detail.Details[0].Issue)
	}
}

func TestListItemsHandler(t *testing.T) {
	var gotTodo uint
	items := &fakeItemService{list: func(todoID uint, f *filter.Filter) ([]domain.Item, error) {
		gotTodo = todoID
		require.NotNil(t, f)
		assert.Equal(t, []string{"id DESC"}, f.Order)
		return []domain.Item{{ID: 2, Content: "B", TodoID: todoID}}, nil
	}}

	rec := do(t, New(nil, items, nil), http.MethodGet, withFilter("/todos/4/items", `{"order": "id DESC"}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(4), gotTodo)
}

func TestItemHandlers_ByID(t *testing.T) {
	items := &fakeItemService{
		get: func(id uint, _ *filter.Filter) (*domain.Item, error) {
			if id != 1 {
				return nil, domain.ErrItemNotFound
			}
			return &domain.Item{ID: 1, Content: "A", TodoID: 1}, nil
		},
		update: func(id uint, req service.UpdateItemRequest) error {
			if id != 1 {
				return domain.ErrItemNotFound
			}
			return nil
		},
		delete: func(id uint) error {
			if id != 1 {
				return domain.ErrItemNotFound
			}
			return nil
		},
	}
	s := New(nil, items, nil)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/items/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/items/2", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodPatch, "/items/1", `{"isCompleted": true, "completedAt": "2025-03-14T11:00:00Z"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPatch, "/items/1", `{"completedAt": "yesterday"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPatch, "/items/2", `{"content": "B"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/items/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/items/2", "").Code)
}
