package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-items/internal/domain"
)

func TestTranslateError(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "record not found", err: gorm.ErrRecordNotFound, want: domain.ErrItemNotFound},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}, want: domain.ErrTodoNotFound},
		{name: "check constraint", err: &pgconn.PgError{Code: "23514"}, want: domain.ErrInvalidStatus},
		{name: "not null", err: &pgconn.PgError{Code: "23502", ColumnName: "title"}, want: domain.ErrValidation},
		{name: "invalid text representation", err: &pgconn.PgError{Code: "22P02"}, want: domain.ErrValidation},
		{name: "invalid datetime format", err: &pgconn.PgError{Code: "22007"}, want: domain.ErrValidation},
		{name: "datetime overflow", err: &pgconn.PgError{Code: "22008"}, want: domain.ErrValidation},
		{name: "numeric out of range", err: fmt.Errorf("query: %w", &pgconn.PgError{Code: "22003"}), want: domain.ErrValidation},
		{name: "other", err: boom, want: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, domain.ErrItemNotFound)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("unique violation is not a validation error", func(t *testing.T) {
		got := translateError(&pgconn.PgError{Code: "23505"}, domain.ErrItemNotFound)
		assert.NotErrorIs(t, got, domain.ErrValidation)
	})
}
