package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/repository"
)

// TaskService holds the task business rules. Ownership scoping itself lives
// in the repository queries; this layer validates input and logs.
type TaskService struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{tasks: tasks, logger: logger}
}

// Create adds a task for the owner. Title is required; status defaults to
// pending.
func (s *TaskService) Create(ctx context.Context, userID, title, description string) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title must not be empty")
	}

	task := &model.Task{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      model.StatusPending,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("service/task: creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("taskID", task.ID),
		slog.String("userID", userID),
	)

	return task, nil
}

// List returns the owner's tasks, optionally filtered by status. An unknown
// status filter is a validation error rather than an empty result, so typos
// don't silently look like "no tasks".
func (s *TaskService) List(ctx context.Context, userID, status string) ([]model.Task, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, apperror.ValidationFailed("status", fmt.Sprintf("unknown status %q", status))
	}

	tasks, err := s.tasks.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("service/task: listing tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

// UpdateStatus moves one of the owner's tasks to a new status.
func (s *TaskService) UpdateStatus(ctx context.Context, id, userID, status string) error {
	if !model.ValidStatus(status) {
		return apperror.ValidationFailed("status", fmt.Sprintf("unknown status %q", status))
	}

	if err := s.tasks.UpdateStatus(ctx, id, userID, status); err != nil {
		return fmt.Errorf("service/task: updating task %s: %w", id, err)
	}

	s.logger.Info("task status updated",
		slog.String("taskID", id),
		slog.String("status", status),
	)

	return nil
}

// Delete removes one of the owner's tasks.
func (s *TaskService) Delete(ctx context.Context, id, userID string) error {
	if err := s.tasks.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("service/task: deleting task %s: %w", id, err)
	}

	s.logger.Info("task deleted", slog.String("taskID", id))

	return nil
}
