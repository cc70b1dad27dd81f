package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/service"
)

// TaskHandler serves the dashboard and the task CRUD operations. Every
// route it handles sits behind RequireAuth, so UserFromContext always
// yields the owner — the handler never reads a user id from the request
// itself.
type TaskHandler struct {
	svc    *service.TaskService
	view   *View
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(svc *service.TaskService, view *View, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, view: view, logger: logger}
}

// HandleDashboard renders the task list page.
//
// HTTP: GET /tasks?status=pending|in-progress|done
func (h *TaskHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	status := r.URL.Query().Get("status")
	tasks, err := h.svc.List(r.Context(), user.ID, status)
	if err != nil {
		h.logger.Error("dashboard: listing tasks", slog.String("error", err.Error()))
		h.view.Render(w, http.StatusInternalServerError, "dashboard.html", map[string]any{
			"Title":  "Tasks",
			"User":   user,
			"Filter": "",
			"Error":  "Could not load tasks. Please try again.",
		})
		return
	}

	h.view.Render(w, http.StatusOK, "dashboard.html", map[string]any{
		"Title":  "Tasks",
		"User":   user,
		"Tasks":  tasks,
		"Filter": status,
	})
}

// HandleCreateForm creates a task from the dashboard form and redirects
// back to /tasks.
//
// HTTP: POST /tasks
func (h *TaskHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed form body"))
		return
	}

	if _, err := h.svc.Create(r.Context(), user.ID, r.PostFormValue("title"), r.PostFormValue("description")); err != nil {
		h.renderDashboardError(w, r, user.ID, err)
		return
	}

	http.Redirect(w, r, "/tasks", http.StatusFound)
}

// HandleStatusForm updates a task's status from the dashboard and redirects
// back to /tasks.
//
// HTTP: POST /tasks/{id}/status
func (h *TaskHandler) HandleStatusForm(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed form body"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.UpdateStatus(r.Context(), id, user.ID, r.PostFormValue("status")); err != nil {
		h.renderDashboardError(w, r, user.ID, err)
		return
	}

	http.Redirect(w, r, "/tasks", http.StatusFound)
}

// HandleDeleteForm deletes a task from the dashboard and redirects back.
//
// HTTP: POST /tasks/{id}/delete
func (h *TaskHandler) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id, user.ID); err != nil {
		h.renderDashboardError(w, r, user.ID, err)
		return
	}

	http.Redirect(w, r, "/tasks", http.StatusFound)
}

// --- JSON API ---

// taskRequest is the JSON body for creating a task.
type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// statusRequest is the JSON body for a status update.
type statusRequest struct {
	Status string `json:"status"`
}

// HandleListAPI returns the owner's tasks as JSON.
//
// HTTP: GET /api/tasks?status=...
func (h *TaskHandler) HandleListAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	tasks, err := h.svc.List(r.Context(), user.ID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreateAPI creates a task from a JSON body.
//
// HTTP: POST /api/tasks
func (h *TaskHandler) HandleCreateAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed JSON body"))
		return
	}

	task, err := h.svc.Create(r.Context(), user.ID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleStatusAPI updates a task's status from a JSON body.
//
// HTTP: PUT /api/tasks/{id}/status
func (h *TaskHandler) HandleStatusAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "malformed JSON body"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.UpdateStatus(r.Context(), id, user.ID, req.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

// HandleDeleteAPI deletes a task.
//
// HTTP: DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDeleteAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id, user.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// renderDashboardError re-renders the dashboard with an error banner,
// keeping the user's task list on screen. Validation problems show their
// message; anything else shows a generic one.
func (h *TaskHandler) renderDashboardError(w http.ResponseWriter, r *http.Request, userID string, opErr error) {
	user, _ := auth.UserFromContext(r.Context())

	message := "Something went wrong. Please try again."
	status := http.StatusInternalServerError
	var appErr *apperror.AppError
	if errors.As(opErr, &appErr) && (errors.Is(opErr, apperror.ErrValidation) || errors.Is(opErr, apperror.ErrNotFound)) {
		message = appErr.Message
		status = http.StatusBadRequest
	} else {
		h.logger.Error("task operation failed", slog.String("error", opErr.Error()))
	}

	tasks, err := h.svc.List(r.Context(), userID, "")
	if err != nil {
		tasks = nil
	}

	h.view.Render(w, status, "dashboard.html", map[string]any{
		"Title":  "Tasks",
		"User":   user,
		"Tasks":  tasks,
		"Filter": "",
		"Error":  message,
	})
}
