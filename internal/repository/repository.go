// Package repository defines the storage interfaces the rest of the app
// depends on. The concrete SQLite implementation lives in repository/sqlite;
// services and middleware only ever see these interfaces, which is what
// makes them testable with in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/taskboard/internal/model"
)

// UserRepository is the credential store.
//
// Create must fail with apperror.ErrConflict (wrapped) when the username is
// already taken. The uniqueness check is the database's UNIQUE constraint,
// not an application-level lookup — check-then-insert would race under
// concurrent registrations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// TaskRepository stores tasks. Every mutating operation is owner-scoped:
// id alone is never enough, the caller's userID is part of the WHERE clause.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	ListByUser(ctx context.Context, userID, status string) ([]model.Task, error)
	UpdateStatus(ctx context.Context, id, userID, status string) error
	Delete(ctx context.Context, id, userID string) error
}
