package model

import "time"

// Task statuses. Anything else is rejected at the service layer.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// ValidStatus reports whether s is one of the recognised task statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusDone
}

// Task is a single to-do item owned by exactly one user.
//
// UserID scopes every query — a task is only ever visible to, or mutable by,
// its owner. The repository enforces this by including user_id in the WHERE
// clause of every update/delete, never by trusting the caller.
type Task struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status"      db:"status"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
