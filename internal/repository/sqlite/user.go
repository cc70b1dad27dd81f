package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users view of the shared database handle. User and task
// methods live on separate wrapper types so each can satisfy its own
// repository interface.
type UserDB struct {
	db *DB
}

// NewUserDB wraps db with the user repository methods.
func NewUserDB(db *DB) *UserDB {
	return &UserDB{db: db}
}

// Create inserts a new user.
//
// ATOMIC UNIQUENESS:
// There is deliberately no "does this username exist?" query before the
// INSERT. The UNIQUE constraint on username does the check and the insert as
// one atomic operation, so two concurrent registrations with the same name
// cannot both pass. The constraint violation is translated to
// apperror.Conflict for the layers above.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("username %q is already taken", user.Username))
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID. The auth middleware calls this on
// every protected request to re-resolve the token's subject.
// Returns apperror.ErrNotFound (wrapped) if no such user exists.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getUser(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by login identifier, for the login flow.
// Returns apperror.ErrNotFound (wrapped) if no such user exists.
func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.getUser(ctx,
		`SELECT id, username, password_hash, created_at, updated_at
		 FROM users WHERE username = ?`, username)
}

func (u *UserDB) getUser(ctx context.Context, query, arg string) (*model.User, error) {
	var usr model.User

	err := u.db.conn.QueryRowContext(ctx, query, arg).Scan(
		&usr.ID,
		&usr.Username,
		&usr.PasswordHash,
		&usr.CreatedAt,
		&usr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", arg, err)
	}

	return &usr, nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint error
// (extended result code SQLITE_CONSTRAINT_UNIQUE).
func isUniqueViolation(err error) bool {
	var liteErr *sqlite3.Error
	return errors.As(err, &liteErr) && liteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}
