package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
)

// Relation names accepted in filter include lists.
const (
	RelationItems = "items"
	RelationTodo  = "todo"
)

// TodoSchema maps Todo JSON fields onto columns of the todo table.
var TodoSchema = filter.NewSchema(map[string]filter.Field{
	"id":        {Column: "id", Kind: filter.Integer},
	"title":     {Column: "title", Kind: filter.Text},
	"subtitle":  {Column: "subtitle", Kind: filter.Text},
	"status":    {Column: "status", Kind: filter.Text},
	"createdAt": {Column: "created_at", Kind: filter.Timestamp},
	"updatedAt": {Column: "updated_at", Kind: filter.Timestamp},
}, RelationItems)

// ItemSchema maps Item JSON fields onto columns of the item table.
var ItemSchema = filter.NewSchema(map[string]filter.Field{
	"id":          {Column: "id", Kind: filter.Integer},
	"content":     {Column: "content", Kind: filter.Text},
	"isCompleted": {Column: "is_completed", Kind: filter.Boolean},
	"completedAt": {Column: "completed_at", Kind: filter.Timestamp},
	"createdAt":   {Column: "created_at", Kind: filter.Timestamp},
	"updatedAt":   {Column: "updated_at", Kind: filter.Timestamp},
	"todoId":      {Column: "todo_id", Kind: filter.Integer},
}, RelationTodo)

// PostgreSQL error codes the repositories translate.
const (
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"

	// Class 22 covers malformed or out-of-range values.
	pgDataExceptionClass = "22"
)

// translateError maps driver and ORM errors onto domain errors. notFound is
// returned for gorm.ErrRecordNotFound.
func translateError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return domain.ErrTodoNotFound
		case pgNotNullViolation:
			return domain.NewValidationError(pgErr.ColumnName, "is required")
		case pgCheckViolation:
			return domain.ErrInvalidStatus
		}
		if strings.HasPrefix(pgErr.Code, pgDataExceptionClass) {
			return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Message)
		}
	}
	return err
}
