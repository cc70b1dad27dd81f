package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// compile-time check that *TaskDB implements repository.TaskRepository
var _ repository.TaskRepository = (*TaskDB)(nil)

// TaskDB is the tasks view of the shared database handle.
type TaskDB struct {
	db *DB
}

// NewTaskDB wraps db with the task repository methods.
func NewTaskDB(db *DB) *TaskDB {
	return &TaskDB{db: db}
}

// Create inserts a new task for its owner.
func (t *TaskDB) Create(ctx context.Context, task *model.Task) error {
	now := time.Now()
	task.ID = xid.New().String()
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := t.db.conn.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task for user %s: %w", task.UserID, err)
	}

	return nil
}

// ListByUser returns the user's tasks, newest first. An empty status means
// no filter; otherwise only tasks in that status are returned.
func (t *TaskDB) ListByUser(ctx context.Context, userID, status string) ([]model.Task, error) {
	query := `SELECT id, user_id, title, description, status, created_at, updated_at
	          FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := t.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks for user %s: %w", userID, err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var tk model.Task
		if err := rows.Scan(
			&tk.ID,
			&tk.UserID,
			&tk.Title,
			&tk.Description,
			&tk.Status,
			&tk.CreatedAt,
			&tk.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task: %w", err)
		}
		tasks = append(tasks, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

// UpdateStatus sets the status of one of the user's tasks.
//
// OWNERSHIP IN THE WHERE CLAUSE:
// user_id is part of the predicate, so a well-formed request with someone
// else's task id updates zero rows and reports not-found — from the
// outside, another user's task and a nonexistent task look identical.
func (t *TaskDB) UpdateStatus(ctx context.Context, id, userID, status string) error {
	res, err := t.db.conn.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		status, time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating task %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("task", id)
	}

	return nil
}

// Delete removes one of the user's tasks. Same ownership rule as
// UpdateStatus.
func (t *TaskDB) Delete(ctx context.Context, id, userID string) error {
	res, err := t.db.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("task", id)
	}

	return nil
}
