package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database that lives
// only for this test. t.Cleanup closes it even if the test fails.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestUserDB is a helper that returns a *UserDB backed by the same in-memory DB.
func newTestUserDB(t *testing.T) (*DB, *UserDB) {
	t.Helper()
	db := newTestDB(t)
	return db, NewUserDB(db)
}

// createTestUser creates a user and fails the test on error.
func createTestUser(t *testing.T, u *UserDB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefake",
	}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	_, u := newTestUserDB(t)

	user := &model.User{Username: "alice", PasswordHash: "hash"}
	if err := u.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	_, u := newTestUserDB(t)

	createTestUser(t, u, "alice")

	// Second registration with the same username must fail at the UNIQUE
	// constraint, regardless of password, and surface as a conflict.
	duplicate := &model.User{Username: "alice", PasswordHash: "a-different-hash"}
	err := u.Create(context.Background(), duplicate)
	if err == nil {
		t.Fatal("Create() should fail for a duplicate username")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate error = %v, want apperror.ErrConflict", err)
	}
}

func TestUserGetByID(t *testing.T) {
	_, u := newTestUserDB(t)
	created := createTestUser(t, u, "alice")

	got, err := u.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("GetByID() Username = %q, want %q", got.Username, "alice")
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("GetByID() should return the stored password hash for verification")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)

	_, err := u.GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want apperror.ErrNotFound", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	_, u := newTestUserDB(t)
	created := createTestUser(t, u, "bob")

	got, err := u.GetByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByUsername() ID = %q, want %q", got.ID, created.ID)
	}
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	_, u := newTestUserDB(t)

	_, err := u.GetByUsername(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByUsername() error = %v, want apperror.ErrNotFound", err)
	}
}
