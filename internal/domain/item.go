package domain

import "time"

// Item is a sub-task that belongs to exactly one Todo.
type Item struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Content     string     `gorm:"not null" json:"content"`
	IsCompleted bool       `gorm:"not null;default:false" json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	TodoID      uint       `gorm:"not null;index" json:"todoId"`
	Todo        *Todo      `gorm:"foreignKey:TodoID" json:"todo,omitempty"`
}

func (Item) TableName() string { return "item" }

// ItemPatch lists the Item fields a partial update may change. Nil fields
// keep their stored value.
type ItemPatch struct {
	Content     *string
	IsCompleted *bool
	CompletedAt *time.Time
}

func (p ItemPatch) Empty() bool {
	return p.Content == nil && p.IsCompleted == nil && p.CompletedAt == nil
}
