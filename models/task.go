package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses. Toggle flips between the two.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Task struct {
	ID          int64     `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"userId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted
}
