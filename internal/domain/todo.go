package domain

import (
	"fmt"
	"time"
)

// TodoStatus is the lifecycle state of a Todo. DELETED marks a soft-deleted
// record; the row itself is never removed.
type TodoStatus string

const (
	TodoStatusActive   TodoStatus = "ACTIVE"
	TodoStatusInactive TodoStatus = "INACTIVE"
	TodoStatusDeleted  TodoStatus = "DELETED"
)

// TodoStatuses lists the accepted status values in declaration order.
var TodoStatuses = []TodoStatus{TodoStatusActive, TodoStatusInactive, TodoStatusDeleted}

func (s TodoStatus) Valid() bool {
	switch s {
	case TodoStatusActive, TodoStatusInactive, TodoStatusDeleted:
		return true
	}
	return false
}

// ParseTodoStatus converts s into a TodoStatus. The empty string yields ACTIVE.
func ParseTodoStatus(s string) (TodoStatus, error) {
	if s == "" {
		return TodoStatusActive, nil
	}
	status := TodoStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Todo is a task list entry. Items is only populated when the caller asked
// for the relation; a nil slice is omitted from JSON while an empty one is
// rendered as [].
type Todo struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Subtitle  *string    `json:"subtitle,omitempty"`
	Status    TodoStatus `gorm:"not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Items     []Item     `gorm:"foreignKey:TodoID" json:"items,omitzero"`
}

func (Todo) TableName() string { return "todo" }

// TodoPatch lists the Todo fields a partial update may change. Nil fields
// keep their stored value.
type TodoPatch struct {
	Title    *string
	Subtitle *string
	Status   *TodoStatus
}

func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Subtitle == nil && p.Status == nil
}
