package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Todos() TodoRepository
	Items() ItemRepository
	// WithinTransaction runs fn against repositories bound to a single
	// transaction. The transaction commits when fn returns nil and rolls
	// back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Todos() TodoRepository {
	return NewGormTodoRepository(s.db)
}

func (s *gormStore) Items() ItemRepository {
	return NewGormItemRepository(s.db)
}

func (s *gormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
